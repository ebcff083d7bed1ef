// Package processors содержит процессоры задачи: статусы, награды и наблюдения.
//
// # Обзор
//
// Каждый шаг эпизода пайплайн прогоняет процессоры в порядке,
// построенном engine.BuildDAG:
//
//	объекты → статусы (status mapping) → награды → наблюдение
//
// Все процессоры реализуют общий жизненный цикл:
//
//	type Processor interface {
//	    Name() string
//	    Type() string
//	    Reads() []string
//	    Reset(objs, status) error
//	    Increment(objs, stepSize, status) error
//	}
//
// и стадийный метод Process. Increment обновляет внутреннее состояние
// (здесь обнаруживаются переходы "был в области: вышел"), Process
// только читает его. Reads объявляет ключи статусов, которые процессор
// читает в том же шаге: по ним строится граф зависимостей.
//
// # Registry
//
// Registry: фабрики процессоров по стадии и типу:
//
//	registry := processors.DefaultRegistry()
//	p, err := registry.BuildStatus(domain.ProcessorDef{
//	    Name:   "in_rejoin",
//	    Type:   "in_region",
//	    Config: map[string]any{"object": "wingman", "region": "rejoin_region"},
//	})
//
// # Статусы (status.go)
//
//   - in_region: объект внутри области (без состояния)
//   - in_region_prev: принадлежность на предыдущем шаге
//   - region_time: непрерывное время в области, сброс при выходе
//   - time_elapsed: время от начала эпизода
//   - distance: расстояние между объектами (euclidean | z)
//   - failure: первый сработавший код отказа по порядку объявления
//   - success: порог по числовому статусу или булев статус
//
// # Награды (reward.go)
//
//   - time_decay: постоянный вклад за шаг
//   - distance_change: (d_t − d_{t−1}) * reward
//   - terminal: разовая награда за success/failure
//   - region_dwell: reward * step_size за полный шаг в области, refund при выходе
//   - region_first_time: разовый бонус за первое попадание
//
// Накопители наград принадлежат пайплайну (domain.Accumulator).
// region_dwell получает свой накопитель в Process и на шаге выхода
// возвращает -Total, обнуляя его.
//
// # Наблюдения (observation.go)
//
//   - relative: относительные векторы в rect/magnorm, нормализация и обрезка до [-1, 1]
//   - dubins_2d: фиксированная раскладка rejoin 2d (8 или 12 компонент)
//   - dubins_3d: раскладка rejoin 3d с креном и наклоном (14 или 18)
//   - state: сырое положение и скорость объекта
//
// # Конфигурация
//
// Config (config.go) читает map[string]any из TaskSpec. Отсутствующий
// обязательный ключ или неверный тип: *engine.ValidationError с
// engine.ErrMissingConfig или engine.ErrInvalidConfig; значения по
// умолчанию есть только у необязательных ключей.
package processors
