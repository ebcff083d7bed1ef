package processors

import (
	"fmt"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/geometry"
)

// Типы процессоров статусов.
const (
	TypeInRegion     = "in_region"
	TypeInRegionPrev = "in_region_prev"
	TypeRegionTime   = "region_time"
	TypeTimeElapsed  = "time_elapsed"
	TypeDistance     = "distance"
	TypeFailure      = "failure"
	TypeSuccess      = "success"
)

// Метрики расстояния.
const (
	MetricEuclidean = "euclidean"
	MetricZ         = "z"
)

// InRegion: находится ли объект внутри области.
// Состояния нет, результат зависит только от текущих положений.
type InRegion struct {
	base
	stateless
	object string
	region string
}

// NewInRegion создаёт статус принадлежности области.
//
// Конфигурация:
//
//	{object: wingman, region: rejoin_region}
func NewInRegion(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &InRegion{
		base:   base{name: def.Name, typ: TypeInRegion},
		object: cfg.RequireString("object"),
		region: cfg.RequireString("region"),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *InRegion) Process(objs domain.Objects, _ *domain.Status) (any, error) {
	region, err := objs.Region(p.region)
	if err != nil {
		return nil, err
	}
	obj, err := objs.Get(p.object)
	if err != nil {
		return nil, err
	}
	return region.Contains(obj), nil
}

// InRegionPrev: значение статуса принадлежности на предыдущем шаге.
//
// Increment сдвигает "текущее" в "предыдущее" и читает новое текущее
// значение, поэтому процессор вычисляется после своего in_region.
type InRegionPrev struct {
	base
	status string
	prev   bool
	cur    bool
}

// NewInRegionPrev создаёт статус предыдущей принадлежности.
//
// Конфигурация:
//
//	{status: in_rejoin}
func NewInRegionPrev(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	status := cfg.RequireString("status")
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return &InRegionPrev{
		base:   base{name: def.Name, typ: TypeInRegionPrev, reads: []string{status}},
		status: status,
	}, nil
}

func (p *InRegionPrev) Reset(_ domain.Objects, status *domain.Status) error {
	cur, err := status.Bool(p.status)
	if err != nil {
		return err
	}
	p.prev, p.cur = false, cur
	return nil
}

func (p *InRegionPrev) Increment(_ domain.Objects, _ float64, status *domain.Status) error {
	cur, err := status.Bool(p.status)
	if err != nil {
		return err
	}
	p.prev, p.cur = p.cur, cur
	return nil
}

func (p *InRegionPrev) Process(domain.Objects, *domain.Status) (any, error) {
	return p.prev, nil
}

// RegionTime: непрерывное время внутри области.
// Сбрасывается в ноль в тот же шаг, когда принадлежность становится false.
type RegionTime struct {
	base
	status  string
	elapsed float64
}

// NewRegionTime создаёт статус времени в области.
//
// Конфигурация:
//
//	{status: in_rejoin}
func NewRegionTime(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	status := cfg.RequireString("status")
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return &RegionTime{
		base:   base{name: def.Name, typ: TypeRegionTime, reads: []string{status}},
		status: status,
	}, nil
}

func (p *RegionTime) Reset(_ domain.Objects, status *domain.Status) error {
	if _, err := status.Bool(p.status); err != nil {
		return err
	}
	p.elapsed = 0
	return nil
}

func (p *RegionTime) Increment(_ domain.Objects, stepSize float64, status *domain.Status) error {
	in, err := status.Bool(p.status)
	if err != nil {
		return err
	}
	if in {
		p.elapsed += stepSize
	} else {
		p.elapsed = 0
	}
	return nil
}

func (p *RegionTime) Process(domain.Objects, *domain.Status) (any, error) {
	return p.elapsed, nil
}

// TimeElapsed: время от начала эпизода.
type TimeElapsed struct {
	base
	elapsed float64
}

// NewTimeElapsed создаёт статус прошедшего времени. Конфигурация пустая.
func NewTimeElapsed(def domain.ProcessorDef) (Processor, error) {
	if err := NewConfig(def).Done(); err != nil {
		return nil, err
	}
	return &TimeElapsed{base: base{name: def.Name, typ: TypeTimeElapsed}}, nil
}

func (p *TimeElapsed) Reset(domain.Objects, *domain.Status) error {
	p.elapsed = 0
	return nil
}

func (p *TimeElapsed) Increment(_ domain.Objects, stepSize float64, _ *domain.Status) error {
	p.elapsed += stepSize
	return nil
}

func (p *TimeElapsed) Process(domain.Objects, *domain.Status) (any, error) {
	return p.elapsed, nil
}

// Distance: расстояние между двумя объектами.
type Distance struct {
	base
	stateless
	a, b   string
	metric string
}

// NewDistance создаёт статус расстояния.
//
// Конфигурация:
//
//	{a: wingman, b: lead, metric: euclidean}   # metric: euclidean | z
func NewDistance(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	p := &Distance{
		base:   base{name: def.Name, typ: TypeDistance},
		a:      cfg.RequireString("a"),
		b:      cfg.RequireString("b"),
		metric: cfg.OptionalEnum("metric", MetricEuclidean, MetricEuclidean, MetricZ),
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Distance) Process(objs domain.Objects, _ *domain.Status) (any, error) {
	return measure(objs, p.a, p.b, p.metric)
}

// measure считает расстояние между именованными объектами.
func measure(objs domain.Objects, a, b, metric string) (float64, error) {
	oa, err := objs.Get(a)
	if err != nil {
		return 0, err
	}
	ob, err := objs.Get(b)
	if err != nil {
		return 0, err
	}
	if metric == MetricZ {
		return geometry.AxisDistanceZ(oa, ob), nil
	}
	return geometry.Distance(oa, ob), nil
}

// Операторы сравнения в условиях отказа.
const (
	OpLess         = "lt"
	OpLessEqual    = "le"
	OpGreater      = "gt"
	OpGreaterEqual = "ge"
)

// FailureCondition: одно условие отказа.
type FailureCondition struct {
	Code      domain.FailureCode
	Status    string
	Op        string
	Threshold float64
}

// Match проверяет условие для значения статуса.
func (c FailureCondition) Match(v float64) bool {
	switch c.Op {
	case OpLess:
		return v < c.Threshold
	case OpLessEqual:
		return v <= c.Threshold
	case OpGreater:
		return v > c.Threshold
	default:
		return v >= c.Threshold
	}
}

// Failure: первый сработавший код отказа в порядке объявления.
//
// При одновременном срабатывании нескольких условий побеждает
// объявленное раньше, а не более "тяжёлое".
type Failure struct {
	base
	conditions []FailureCondition
	values     []float64
}

// NewFailure создаёт статус отказа.
//
// Конфигурация:
//
//	conditions:
//	  - {code: crash,    status: lead_distance, op: lt, threshold: 10}
//	  - {code: timeout,  status: time_elapsed,  op: gt, threshold: 1000}
//	  - {code: distance, status: lead_distance, op: ge, threshold: 40000}
func NewFailure(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	items := cfg.RequireList("conditions")

	p := &Failure{base: base{name: def.Name, typ: TypeFailure}}
	seen := make(map[string]bool)
	for _, item := range items {
		cond := FailureCondition{
			Code:      domain.FailureCode(item.RequireString("code")),
			Status:    item.RequireString("status"),
			Op:        item.RequireEnum("op", OpLess, OpLessEqual, OpGreater, OpGreaterEqual),
			Threshold: item.RequireFloat("threshold"),
		}
		cfg.Merge(item)
		p.conditions = append(p.conditions, cond)
		if !seen[cond.Status] {
			seen[cond.Status] = true
			p.reads = append(p.reads, cond.Status)
		}
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	p.values = make([]float64, len(p.conditions))
	return p, nil
}

// Conditions возвращает условия в порядке приоритета.
func (p *Failure) Conditions() []FailureCondition {
	return p.conditions
}

func (p *Failure) capture(status *domain.Status) error {
	for i, c := range p.conditions {
		v, err := status.Float(c.Status)
		if err != nil {
			return err
		}
		p.values[i] = v
	}
	return nil
}

func (p *Failure) Reset(_ domain.Objects, status *domain.Status) error {
	return p.capture(status)
}

func (p *Failure) Increment(_ domain.Objects, _ float64, status *domain.Status) error {
	return p.capture(status)
}

func (p *Failure) Process(domain.Objects, *domain.Status) (any, error) {
	for i, c := range p.conditions {
		if c.Match(p.values[i]) {
			return c.Code, nil
		}
	}
	return domain.FailureNone, nil
}

// Success: условие успеха.
//
// С threshold: числовой статус строго больше порога (время в области
// больше success_time). Без threshold: значение булева статуса.
type Success struct {
	base
	status       string
	threshold    float64
	hasThreshold bool
	value        any
}

// NewSuccess создаёт статус успеха.
//
// Конфигурация:
//
//	{status: rejoin_time, threshold: 20}   # или {status: in_docking}
func NewSuccess(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	status := cfg.RequireString("status")
	threshold, has := cfg.LookupFloat("threshold")
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return &Success{
		base:         base{name: def.Name, typ: TypeSuccess, reads: []string{status}},
		status:       status,
		threshold:    threshold,
		hasThreshold: has,
	}, nil
}

func (p *Success) capture(status *domain.Status) error {
	var (
		v   any
		err error
	)
	if p.hasThreshold {
		v, err = status.Float(p.status)
	} else {
		v, err = status.Bool(p.status)
	}
	if err != nil {
		return err
	}
	p.value = v
	return nil
}

func (p *Success) Reset(_ domain.Objects, status *domain.Status) error {
	return p.capture(status)
}

func (p *Success) Increment(_ domain.Objects, _ float64, status *domain.Status) error {
	return p.capture(status)
}

func (p *Success) Process(domain.Objects, *domain.Status) (any, error) {
	switch v := p.value.(type) {
	case float64:
		return v > p.threshold, nil
	case bool:
		return v, nil
	default:
		return nil, fmt.Errorf("success %s: status %s not captured", p.name, p.status)
	}
}
