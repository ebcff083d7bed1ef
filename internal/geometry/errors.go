package geometry

import "errors"

var (
	// ErrInvalidRegionType: неизвестный тип области.
	ErrInvalidRegionType = errors.New("invalid region type")

	// ErrInvalidRegionSize: радиус или высота области не положительны.
	ErrInvalidRegionSize = errors.New("invalid region size")

	// ErrInvalidVector: вектор задан не 2 или 3 компонентами.
	ErrInvalidVector = errors.New("vector must have 2 or 3 components")
)
