package processors

import (
	"fmt"

	"github.com/shaiso/Rendezvous/internal/domain"
)

// Типы процессоров наград.
const (
	TypeTimeDecay       = "time_decay"
	TypeDistanceChange  = "distance_change"
	TypeTerminal        = "terminal"
	TypeRegionDwell     = "region_dwell"
	TypeRegionFirstTime = "region_first_time"
)

// TimeDecay: постоянный вклад на каждом шаге.
type TimeDecay struct {
	base
	stateless
	reward float64
}

// NewTimeDecay создаёт награду за время.
//
// Конфигурация:
//
//	{reward: -0.01}
func NewTimeDecay(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &TimeDecay{
		base:   base{name: def.Name, typ: TypeTimeDecay},
		reward: cfg.RequireFloat("reward"),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *TimeDecay) Process(domain.Objects, *domain.Status, domain.Accumulator) (float64, error) {
	return p.reward, nil
}

// DistanceChange: награда за изменение расстояния:
// (d_t − d_{t−1}) * reward. Отрицательный reward поощряет сближение.
//
// С unless шейпинг отключается, пока булев статус истинен
// (например, пока ведомый уже в rejoin-области).
type DistanceChange struct {
	base
	a, b       string
	metric     string
	reward     float64
	unless     string
	prev, cur  float64
	suppressed bool
}

// NewDistanceChange создаёт награду за изменение расстояния.
//
// Конфигурация:
//
//	{a: wingman, b: rejoin_region, reward: -0.00001, metric: euclidean, unless: in_rejoin}
func NewDistanceChange(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &DistanceChange{
		base:   base{name: def.Name, typ: TypeDistanceChange},
		a:      cfg.RequireString("a"),
		b:      cfg.RequireString("b"),
		reward: cfg.RequireFloat("reward"),
		metric: cfg.OptionalEnum("metric", MetricEuclidean, MetricEuclidean, MetricZ),
		unless: cfg.OptionalString("unless", ""),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	if p.unless != "" {
		p.reads = []string{p.unless}
	}
	return p, nil
}

func (p *DistanceChange) readUnless(status *domain.Status) error {
	if p.unless == "" {
		p.suppressed = false
		return nil
	}
	v, err := status.Bool(p.unless)
	if err != nil {
		return err
	}
	p.suppressed = v
	return nil
}

func (p *DistanceChange) Reset(objs domain.Objects, status *domain.Status) error {
	d, err := measure(objs, p.a, p.b, p.metric)
	if err != nil {
		return err
	}
	p.prev, p.cur = d, d
	return p.readUnless(status)
}

func (p *DistanceChange) Increment(objs domain.Objects, _ float64, status *domain.Status) error {
	d, err := measure(objs, p.a, p.b, p.metric)
	if err != nil {
		return err
	}
	p.prev, p.cur = p.cur, d
	return p.readUnless(status)
}

func (p *DistanceChange) Process(domain.Objects, *domain.Status, domain.Accumulator) (float64, error) {
	if p.suppressed {
		return 0, nil
	}
	return (p.cur - p.prev) * p.reward, nil
}

// Terminal: награда за завершение эпизода.
//
// Применяется один раз, на шаге, где впервые появился терминальный
// статус. Отказ имеет приоритет над успехом.
type Terminal struct {
	base
	successStatus string
	failureStatus string
	success       float64
	failure       map[string]float64
	applied       bool
	pending       float64
}

// NewTerminal создаёт терминальную награду.
//
// Конфигурация:
//
//	success_status: success      # по умолчанию "success"
//	failure_status: failure      # по умолчанию "failure"
//	success: 1
//	failure: {crash: -1, timeout: -1, distance: -1}
func NewTerminal(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &Terminal{
		base:          base{name: def.Name, typ: TypeTerminal},
		successStatus: cfg.OptionalString("success_status", domain.StatusSuccess),
		failureStatus: cfg.OptionalString("failure_status", domain.StatusFailure),
		success:       cfg.RequireFloat("success"),
		failure:       cfg.RequireFloatMap("failure"),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	p.reads = []string{p.successStatus, p.failureStatus}
	return p, nil
}

func (p *Terminal) Reset(domain.Objects, *domain.Status) error {
	p.applied = false
	p.pending = 0
	return nil
}

func (p *Terminal) Increment(_ domain.Objects, _ float64, status *domain.Status) error {
	p.pending = 0
	if p.applied {
		return nil
	}

	code, err := status.Failure(p.failureStatus)
	if err != nil {
		return err
	}
	success, err := status.Bool(p.successStatus)
	if err != nil {
		return err
	}

	switch {
	case code.IsFailure():
		v, ok := p.failure[string(code)]
		if !ok {
			return fmt.Errorf("%w: %s in %s", ErrUnknownFailureCode, code, p.name)
		}
		p.pending = v
		p.applied = true
	case success:
		p.pending = p.success
		p.applied = true
	}
	return nil
}

// FailureStatus возвращает ключ статуса отказа, который читает награда.
func (p *Terminal) FailureStatus() string {
	return p.failureStatus
}

// HasFailureReward проверяет, есть ли в таблице награда для кода.
func (p *Terminal) HasFailureReward(code domain.FailureCode) bool {
	_, ok := p.failure[string(code)]
	return ok
}

func (p *Terminal) Process(domain.Objects, *domain.Status, domain.Accumulator) (float64, error) {
	return p.pending, nil
}

// RegionDwell: награда за полный шаг внутри области.
//
// Шаг засчитывается, только если агент был внутри и в начале, и в
// конце шага: reward * step_size. На шаге выхода из области вместо
// награды возвращается -Total этого процессора, после чего его
// накопленная сумма равна нулю.
type RegionDwell struct {
	base
	reward     float64
	status     string
	prevStatus string
	stepSize   float64
	inForStep  bool
	left       bool
}

// NewRegionDwell создаёт награду за нахождение в области.
//
// Конфигурация:
//
//	{reward: 0.1, status: in_rejoin, prev_status: in_rejoin_prev}
func NewRegionDwell(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &RegionDwell{
		base:       base{name: def.Name, typ: TypeRegionDwell},
		reward:     cfg.RequireFloat("reward"),
		status:     cfg.RequireString("status"),
		prevStatus: cfg.RequireString("prev_status"),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	p.reads = []string{p.status, p.prevStatus}
	return p, nil
}

func (p *RegionDwell) Reset(domain.Objects, *domain.Status) error {
	p.stepSize = 0
	p.inForStep = false
	p.left = false
	return nil
}

func (p *RegionDwell) Increment(_ domain.Objects, stepSize float64, status *domain.Status) error {
	p.left = false
	p.inForStep = false
	p.stepSize = stepSize

	in, err := status.Bool(p.status)
	if err != nil {
		return err
	}
	prev, err := status.Bool(p.prevStatus)
	if err != nil {
		return err
	}

	switch {
	case in && prev:
		p.inForStep = true
	case !in && prev:
		p.left = true
	}
	return nil
}

func (p *RegionDwell) Process(_ domain.Objects, _ *domain.Status, acc domain.Accumulator) (float64, error) {
	switch {
	case p.inForStep:
		return p.reward * p.stepSize, nil
	case p.left:
		return -acc.Total, nil
	default:
		return 0, nil
	}
}

// RegionFirstTime: разовый бонус за первое попадание в область.
//
// После применения бонус больше не выдаётся до следующего Reset,
// даже если агент выходит и снова входит в область.
type RegionFirstTime struct {
	base
	reward    float64
	status    string
	firstTime bool
	applied   bool
}

// NewRegionFirstTime создаёт бонус за первое попадание.
//
// Конфигурация:
//
//	{reward: 0.5, status: in_rejoin}
func NewRegionFirstTime(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &RegionFirstTime{
		base:   base{name: def.Name, typ: TypeRegionFirstTime},
		reward: cfg.RequireFloat("reward"),
		status: cfg.RequireString("status"),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	p.reads = []string{p.status}
	return p, nil
}

func (p *RegionFirstTime) Reset(_ domain.Objects, status *domain.Status) error {
	if _, err := status.Bool(p.status); err != nil {
		return err
	}
	p.firstTime = false
	p.applied = false
	return nil
}

func (p *RegionFirstTime) Increment(_ domain.Objects, _ float64, status *domain.Status) error {
	if p.firstTime {
		p.applied = true
		p.firstTime = false
	}

	in, err := status.Bool(p.status)
	if err != nil {
		return err
	}
	if in && !p.applied {
		p.firstTime = true
	}
	return nil
}

func (p *RegionFirstTime) Process(domain.Objects, *domain.Status, domain.Accumulator) (float64, error) {
	if p.firstTime {
		return p.reward, nil
	}
	return 0, nil
}
