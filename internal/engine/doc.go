// Package engine отвечает за структуру задачи: загрузку TaskSpec
// и порядок вычисления процессоров.
//
// Включает:
//   - template.go: рендеринг параметризованных task-файлов ({{ .Vars.radius }})
//   - parser.go: парсинг TaskSpec из YAML/JSON и структурная валидация
//   - dag.go: граф зависимостей процессоров и порядок вычисления
//
// Статус, прочитанный процессором, должен быть вычислен раньше в том же
// шаге. Engine проверяет это при построении пайплайна, а не на шаге.
package engine
