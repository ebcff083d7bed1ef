package domain

import "errors"

// Ошибки доступа к объектам и status mapping.
var (
	// ErrUnknownObject: объект с таким именем отсутствует в наборе.
	ErrUnknownObject = errors.New("unknown environment object")

	// ErrNotRegion: объект не является областью (не умеет Contains).
	ErrNotRegion = errors.New("object is not a region")

	// ErrStatusNotProduced: статус запрошен раньше, чем вычислен.
	// Это ошибка порядка вычисления, а не исход симуляции.
	ErrStatusNotProduced = errors.New("status requested before it was produced")

	// ErrStatusType: значение статуса имеет неожиданный тип.
	ErrStatusType = errors.New("status has unexpected type")
)
