// Package cli реализует инструмент командной строки Rendezvous.
//
// # Обзор
//
// CLI работает с task-файлами напрямую: проверяет их, прогоняет
// эпизоды в процессе и читает сохранённые эпизоды из PostgreSQL.
//
// # Ключевые компоненты
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter): по умолчанию
//   - JSON (json.Encoder с отступами): с флагом --json
//
// Данные выводятся в stdout, пояснения (Note) в stderr и только в табличном режиме.
// Это позволяет использовать pipe: rendezvous run -f task.yaml --json | jq .
//
// ## Commands
//
//   - validate: порядок вычисления процессоров и пространство наблюдения
//   - run: прогон эпизодов (--episodes, --workers, --policy, --seed, --set)
//   - episodes: list, show
//
// Каждая команда создаётся через фабричную функцию (NewRunCmd и т.д.),
// принимающую outputFn: замыкание для ленивого создания Output после
// парсинга PersistentFlags.
package cli
