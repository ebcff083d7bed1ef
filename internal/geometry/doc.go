// Package geometry: геометрические примитивы, которые пайплайн
// получает от окружения: расстояние между объектами, области
// (круг и цилиндр относительно опорного объекта) и повороты.
//
// Векторы и повороты: gonum spatial/r3.
package geometry
