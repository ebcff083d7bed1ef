package processors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
	"github.com/shaiso/Rendezvous/internal/geometry"
)

// Типы процессоров наблюдения.
const (
	TypeRelative = "relative"
	TypeDubins2D = "dubins_2d"
	TypeDubins3D = "dubins_3d"
	TypeState    = "state"
)

// Режимы кодирования векторов.
const (
	ModeRect    = "rect"
	ModeMagnorm = "magnorm"
)

// Виды векторов наблюдения.
const (
	VectorRelativePosition = "relative_position"
	VectorVelocity         = "velocity"
)

// Константы нормализации пресетов Dubins.
const (
	PositionNorm = 10000.0
	VelocityNorm = 100.0
	AngleNorm    = math.Pi
)

// VectorSpec: один вектор наблюдения.
type VectorSpec struct {
	// Kind: relative_position (To − From) или velocity (Object).
	Kind   string
	From   string
	To     string
	Object string

	// Norm: делитель компонент (rect) или модуля (magnorm).
	Norm float64
}

// ScalarSpec: скалярный атрибут объекта.
type ScalarSpec struct {
	Object    string
	Attribute string
	Norm      float64
}

// RelativeConfig: параметры относительного наблюдения.
type RelativeConfig struct {
	Mode      string
	Reference string
	Dims      int
	Vectors   []VectorSpec
	Scalars   []ScalarSpec
	Strict    bool
}

// Relative: вектор наблюдения из относительных положений и скоростей.
//
// Векторы поворачиваются в систему координат Reference (обратным
// поворотом её ориентации), кодируются в rect или magnorm, делятся на
// константы нормализации и обрезаются до [-1, 1]. Компоненты идут в
// порядке объявления: сначала векторы, потом скаляры.
//
// magnorm кодирует вектор как [|v|/norm, v_x/|v|, v_y/|v|, ...].
// Для нулевого вектора направление нулевое; при Strict возвращается
// ErrZeroVector.
type Relative struct {
	base
	stateless
	cfg   RelativeConfig
	space Space
}

// NewRelativeFromConfig создаёт наблюдение из готовой конфигурации.
func NewRelativeFromConfig(name, typ string, cfg RelativeConfig) *Relative {
	width := cfg.Dims
	if cfg.Mode == ModeMagnorm {
		width = cfg.Dims + 1
	}
	n := len(cfg.Vectors)*width + len(cfg.Scalars)
	return &Relative{
		base:  base{name: name, typ: typ},
		cfg:   cfg,
		space: BoxSpace(n, -1, 1),
	}
}

// NewRelative создаёт наблюдение из определения.
//
// Конфигурация:
//
//	mode: magnorm            # rect | magnorm
//	reference: wingman       # пусто: мировая система координат
//	dims: 2                  # 2 | 3
//	vectors:
//	  - {kind: relative_position, from: wingman, to: lead, norm: 10000}
//	  - {kind: velocity, object: wingman, norm: 100}
//	scalars:
//	  - {object: wingman, attribute: roll, norm: 3.14159}
//	strict: false
func NewRelative(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	rc := RelativeConfig{
		Mode:      cfg.RequireEnum("mode", ModeRect, ModeMagnorm),
		Reference: cfg.OptionalString("reference", ""),
		Dims:      cfg.OptionalInt("dims", 3),
		Strict:    cfg.OptionalBool("strict", false),
	}
	if cfg.Err() == nil && rc.Dims != 2 && rc.Dims != 3 {
		cfg.fail("dims", fmt.Sprintf("must be 2 or 3, got %d", rc.Dims), engine.ErrInvalidConfig)
	}

	for _, item := range cfg.RequireList("vectors") {
		v := VectorSpec{
			Kind: item.RequireEnum("kind", VectorRelativePosition, VectorVelocity),
		}
		if v.Kind == VectorRelativePosition {
			v.From = item.RequireString("from")
			v.To = item.RequireString("to")
		} else {
			v.Object = item.RequireString("object")
		}
		v.Norm = item.RequireNorm("norm")
		cfg.Merge(item)
		rc.Vectors = append(rc.Vectors, v)
	}

	for _, item := range cfg.OptionalList("scalars") {
		s := ScalarSpec{
			Object:    item.RequireString("object"),
			Attribute: item.RequireString("attribute"),
			Norm:      item.RequireNorm("norm"),
		}
		cfg.Merge(item)
		rc.Scalars = append(rc.Scalars, s)
	}

	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return NewRelativeFromConfig(def.Name, TypeRelative, rc), nil
}

func (p *Relative) Space() Space {
	return p.space
}

func (p *Relative) Process(objs domain.Objects, _ *domain.Status) ([]float64, error) {
	rot := domain.Identity
	if p.cfg.Reference != "" {
		ref, err := objs.Get(p.cfg.Reference)
		if err != nil {
			return nil, err
		}
		rot = geometry.Inverse(ref.Orientation())
	}

	obs := make([]float64, 0, p.space.Size())
	for _, spec := range p.cfg.Vectors {
		v, err := vectorOf(objs, spec)
		if err != nil {
			return nil, err
		}
		comps := geometry.Components(rot.Rotate(v), p.cfg.Dims)

		if p.cfg.Mode == ModeMagnorm {
			mag, unit, err := magnorm(comps, p.cfg.Strict)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", spec.describe(), err)
			}
			obs = append(obs, mag/spec.Norm)
			obs = append(obs, unit...)
			continue
		}

		for _, c := range comps {
			obs = append(obs, c/spec.Norm)
		}
	}

	for _, spec := range p.cfg.Scalars {
		obj, err := objs.Get(spec.Object)
		if err != nil {
			return nil, err
		}
		v, ok := obj.Attr(spec.Attribute)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownAttribute, spec.Object, spec.Attribute)
		}
		obs = append(obs, v/spec.Norm)
	}

	for i := range obs {
		obs[i] = clip(obs[i], -1, 1)
	}
	return obs, nil
}

func vectorOf(objs domain.Objects, spec VectorSpec) (r3.Vec, error) {
	if spec.Kind == VectorVelocity {
		obj, err := objs.Get(spec.Object)
		if err != nil {
			return r3.Vec{}, err
		}
		return obj.Velocity(), nil
	}

	from, err := objs.Get(spec.From)
	if err != nil {
		return r3.Vec{}, err
	}
	to, err := objs.Get(spec.To)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Sub(to.Position(), from.Position()), nil
}

func (v VectorSpec) describe() string {
	if v.Kind == VectorVelocity {
		return v.Object + " velocity"
	}
	return v.From + "->" + v.To
}

// magnorm возвращает модуль и единичный вектор.
func magnorm(comps []float64, strict bool) (float64, []float64, error) {
	var sum float64
	for _, c := range comps {
		sum += c * c
	}
	mag := math.Sqrt(sum)

	unit := make([]float64, len(comps))
	if mag == 0 {
		if strict {
			return 0, nil, ErrZeroVector
		}
		return 0, unit, nil
	}
	for i, c := range comps {
		unit[i] = c / mag
	}
	return mag, unit, nil
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// dubinsConfig собирает фиксированную раскладку наблюдения rejoin:
// wingman→lead, wingman→rejoin_region, скорость wingman, скорость lead;
// в 3d дополнительно крен и угол наклона траектории wingman.
func dubinsConfig(def domain.ProcessorDef, dims int) (RelativeConfig, error) {
	cfg := NewConfig(def)
	lead := cfg.OptionalString("lead", "lead")
	wingman := cfg.OptionalString("wingman", "wingman")
	region := cfg.OptionalString("rejoin_region", "rejoin_region")
	rc := RelativeConfig{
		Mode:      cfg.RequireEnum("mode", ModeRect, ModeMagnorm),
		Reference: cfg.OptionalString("reference", ""),
		Dims:      dims,
		Strict:    cfg.OptionalBool("strict", false),
		Vectors: []VectorSpec{
			{Kind: VectorRelativePosition, From: wingman, To: lead, Norm: PositionNorm},
			{Kind: VectorRelativePosition, From: wingman, To: region, Norm: PositionNorm},
			{Kind: VectorVelocity, Object: wingman, Norm: VelocityNorm},
			{Kind: VectorVelocity, Object: lead, Norm: VelocityNorm},
		},
	}
	if dims == 3 {
		rc.Scalars = []ScalarSpec{
			{Object: wingman, Attribute: "roll", Norm: AngleNorm},
			{Object: wingman, Attribute: "gamma", Norm: AngleNorm},
		}
	}
	return rc, cfg.Done()
}

// NewDubins2D создаёт наблюдение rejoin 2d (rect 8, magnorm 12 компонент).
//
// Конфигурация:
//
//	{mode: rect, reference: wingman}   # lead, wingman, rejoin_region: имена объектов
func NewDubins2D(def domain.ProcessorDef) (Processor, error) {
	rc, err := dubinsConfig(def, 2)
	if err != nil {
		return nil, err
	}
	return NewRelativeFromConfig(def.Name, TypeDubins2D, rc), nil
}

// NewDubins3D создаёт наблюдение rejoin 3d (rect 14, magnorm 18 компонент).
func NewDubins3D(def domain.ProcessorDef) (Processor, error) {
	rc, err := dubinsConfig(def, 3)
	if err != nil {
		return nil, err
	}
	return NewRelativeFromConfig(def.Name, TypeDubins3D, rc), nil
}

// State: сырое положение и скорость объекта без нормализации.
type State struct {
	base
	stateless
	object string
	dims   int
	space  Space
}

// NewState создаёт наблюдение состояния объекта.
//
// Конфигурация:
//
//	{object: deputy, dims: 2}   # [x, y, vx, vy]
func NewState(def domain.ProcessorDef) (Processor, error) {
	cfg := NewConfig(def)
	object := cfg.RequireString("object")
	dims := cfg.OptionalInt("dims", 3)
	if cfg.Err() == nil && dims != 2 && dims != 3 {
		cfg.fail("dims", fmt.Sprintf("must be 2 or 3, got %d", dims), engine.ErrInvalidConfig)
	}
	if err := cfg.Done(); err != nil {
		return nil, err
	}
	return &State{
		base:   base{name: def.Name, typ: TypeState},
		object: object,
		dims:   dims,
		space:  BoxSpace(2*dims, -math.MaxFloat32, math.MaxFloat32),
	}, nil
}

func (p *State) Space() Space {
	return p.space
}

func (p *State) Process(objs domain.Objects, _ *domain.Status) ([]float64, error) {
	obj, err := objs.Get(p.object)
	if err != nil {
		return nil, err
	}
	obs := geometry.Components(obj.Position(), p.dims)
	return append(obs, geometry.Components(obj.Velocity(), p.dims)...), nil
}
