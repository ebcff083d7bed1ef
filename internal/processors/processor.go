package processors

import (
	"github.com/shaiso/Rendezvous/internal/domain"
)

// Processor: общий жизненный цикл всех процессоров.
//
// В пределах шага вызовы идут строго в порядке Increment → Process.
// Reset вызывается один раз в начале эпизода и заменяет Increment
// первого шага. Объекты и status mapping процессор только читает.
type Processor interface {
	// Name возвращает имя процессора (для статусов: ключ в status mapping).
	Name() string

	// Type возвращает тип процессора.
	Type() string

	// Reads возвращает ключи статусов, которые процессор читает в том же шаге.
	Reads() []string

	// Reset инициализирует внутреннее состояние по начальной расстановке
	// объектов. status содержит статусы, уже вычисленные в проходе Reset.
	Reset(objs domain.Objects, status *domain.Status) error

	// Increment обновляет внутреннее состояние после шага длиной stepSize.
	Increment(objs domain.Objects, stepSize float64, status *domain.Status) error
}

// StatusProcessor вычисляет именованный факт о состоянии симуляции.
type StatusProcessor interface {
	Processor

	// Process возвращает bool, float64 или domain.FailureCode.
	// Не меняет внутреннее состояние.
	Process(objs domain.Objects, status *domain.Status) (any, error)
}

// RewardProcessor вычисляет вклад в награду за шаг.
//
// Накопитель ведёт пайплайн: Process получает его текущее значение,
// а пайплайн добавляет возвращённый вклад после вызова.
type RewardProcessor interface {
	Processor

	// Process возвращает вклад шага. Не меняет внутреннее состояние.
	Process(objs domain.Objects, status *domain.Status, acc domain.Accumulator) (float64, error)
}

// ObservationProcessor строит вектор наблюдения.
type ObservationProcessor interface {
	Processor

	// Space описывает границы и форму наблюдения.
	Space() Space

	// Process возвращает вектор наблюдения. Не меняет внутреннее состояние.
	Process(objs domain.Objects, status *domain.Status) ([]float64, error)
}

// Space: границы и форма вектора наблюдения.
type Space struct {
	Low   []float64 `json:"low"`
	High  []float64 `json:"high"`
	Shape []int     `json:"shape"`
}

// Size возвращает длину вектора наблюдения.
func (s Space) Size() int {
	n := 1
	for _, d := range s.Shape {
		n *= d
	}
	return n
}

// BoxSpace создаёт пространство размера n с одинаковыми границами.
func BoxSpace(n int, low, high float64) Space {
	s := Space{
		Low:   make([]float64, n),
		High:  make([]float64, n),
		Shape: []int{n},
	}
	for i := 0; i < n; i++ {
		s.Low[i], s.High[i] = low, high
	}
	return s
}

// base: общие поля процессоров.
type base struct {
	name  string
	typ   string
	reads []string
}

func (b *base) Name() string    { return b.name }
func (b *base) Type() string    { return b.typ }
func (b *base) Reads() []string { return b.reads }

// stateless: процессор без внутреннего состояния, результат
// определяется текущим положением объектов.
type stateless struct{}

func (stateless) Reset(domain.Objects, *domain.Status) error { return nil }

func (stateless) Increment(domain.Objects, float64, *domain.Status) error { return nil }
