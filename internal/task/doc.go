// Package task содержит пайплайн задачи: вычисление одного шага эпизода.
//
// Жизненный цикл эпизода:
//
//	INIT ──Reset──▶ RUNNING ──Step──▶ ... ──(success | failure)──▶ TERMINAL
//	                   ▲                                              │
//	                   └───────────────────Reset──────────────────────┘
//
// Шаг пайплайна:
//  1. окружение продвигает объекты (Advance)
//  2. статусы: Increment → Process в порядке DAG, результат пишется в status mapping
//  3. награды: Increment → Process, вклад добавляется в накопитель процессора
//  4. наблюдение: Increment → Process
//  5. чтение success/failure; отказ имеет приоритет, любой из них завершает эпизод
//
// Пайплайн не потокобезопасен: каждый эпизод владеет своим пайплайном.
package task
