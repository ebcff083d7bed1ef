package task

import "errors"

var (
	// ErrNotReset: Step вызван до Reset.
	ErrNotReset = errors.New("pipeline is not reset")

	// ErrTerminal: Step вызван после завершения эпизода.
	ErrTerminal = errors.New("episode is terminal")

	// ErrInvalidStepSize: длительность шага не положительна.
	ErrInvalidStepSize = errors.New("step size must be positive")

	// ErrInvalidStatusValue: статус вернул значение недопустимого типа.
	ErrInvalidStatusValue = errors.New("status value must be bool, float64 or failure code")
)
