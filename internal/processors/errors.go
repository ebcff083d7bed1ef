package processors

import "errors"

var (
	// ErrProcessorNotFound: тип процессора не зарегистрирован для стадии.
	ErrProcessorNotFound = errors.New("processor type not found")

	// ErrStageMismatch: фабрика вернула процессор не той стадии.
	ErrStageMismatch = errors.New("processor does not implement stage interface")

	// ErrUnknownFailureCode: terminal-награда не знает код отказа.
	ErrUnknownFailureCode = errors.New("failure code has no terminal reward")

	// ErrZeroVector: нулевой вектор в режиме magnorm при strict: true.
	ErrZeroVector = errors.New("zero vector in magnorm encoding")

	// ErrUnknownAttribute: объект не отдаёт запрошенный скалярный атрибут.
	ErrUnknownAttribute = errors.New("object has no such attribute")
)
