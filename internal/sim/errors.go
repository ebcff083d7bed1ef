package sim

import "errors"

var (
	// ErrUnknownScenario: неизвестный сценарий окружения.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrUnknownMode: неизвестный режим окружения (не 2d/3d).
	ErrUnknownMode = errors.New("unknown environment mode")

	// ErrMissingObject: в спецификации нет начальных условий объекта.
	ErrMissingObject = errors.New("missing object spec")

	// ErrInvalidStepSize: шаг симуляции не положителен.
	ErrInvalidStepSize = errors.New("step size must be positive")

	// ErrControlSize: размер управляющего воздействия не совпадает с моделью.
	ErrControlSize = errors.New("control input has wrong size")

	// ErrUnknownPolicy: неизвестная политика управления.
	ErrUnknownPolicy = errors.New("unknown policy")
)
