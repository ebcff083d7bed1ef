package engine

import "errors"

// Ошибки валидации TaskSpec.
var (
	// ErrEmptyTask: задача не содержит процессоров.
	ErrEmptyTask = errors.New("task spec has no processors")

	// ErrEmptyTaskName: у задачи нет имени.
	ErrEmptyTaskName = errors.New("task spec has empty name")

	// ErrEmptyProcessorName: процессор не имеет имени.
	ErrEmptyProcessorName = errors.New("processor has empty name")

	// ErrDuplicateProcessorName: несколько процессоров с одинаковым именем.
	ErrDuplicateProcessorName = errors.New("duplicate processor name")

	// ErrUnknownProcessorType: неизвестный тип процессора.
	ErrUnknownProcessorType = errors.New("unknown processor type")

	// ErrMissingObservation: не задан процессор наблюдения.
	ErrMissingObservation = errors.New("task spec has no observation processor")

	// ErrMissingDependency: процессор читает статус, который никто не вычисляет.
	ErrMissingDependency = errors.New("processor reads unknown status")

	// ErrCyclicDependency: обнаружен цикл в зависимостях статусов.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrSelfDependency: статус читает сам себя.
	ErrSelfDependency = errors.New("processor reads its own status")

	// ErrMissingConfig: отсутствует обязательный ключ конфигурации.
	ErrMissingConfig = errors.New("missing required config key")

	// ErrInvalidConfig: ключ конфигурации имеет неверный тип или значение.
	ErrInvalidConfig = errors.New("invalid config value")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender: ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse: ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// ValidationError: ошибка конфигурации с контекстом.
//
// Все ошибки, обнаруженные при построении пайплайна, приходят этим
// типом: они фатальны и не подменяются значениями по умолчанию.
type ValidationError struct {
	Processor string // имя процессора, где произошла ошибка
	Field     string // поле, вызвавшее ошибку
	Message   string // описание ошибки
	Err       error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.Processor != "" {
		return "processor " + e.Processor + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(processor, field, message string, err error) *ValidationError {
	return &ValidationError{
		Processor: processor,
		Field:     field,
		Message:   message,
		Err:       err,
	}
}
