package sim

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/geometry"
)

// Сценарии и режимы.
const (
	ScenarioRejoin  = "rejoin"
	ScenarioDocking = "docking"

	Mode2D = "2d"
	Mode3D = "3d"
)

// Имена объектов сценариев.
const (
	ObjectLead          = "lead"
	ObjectWingman       = "wingman"
	ObjectRejoinRegion  = "rejoin_region"
	ObjectChief         = "chief"
	ObjectDeputy        = "deputy"
	ObjectDockingRegion = "docking_region"
)

// Dynamics: объект, который окружение продвигает во времени.
type Dynamics interface {
	domain.Object

	// ControlDim: размер управляющего воздействия (0: не управляется).
	ControlDim() int

	// Advance продвигает объект на stepSize; control == nil: без управления.
	Advance(stepSize float64, control []float64) error
}

// Environment: набор объектов сценария и их динамика.
//
// Окружение единственный владелец объектов, пайплайн задачи
// получает их через Objects() и только читает.
type Environment struct {
	Scenario string
	Mode     string
	MaxSteps int

	stepSize float64
	objects  domain.Objects
	movers   []string
	dyn      map[string]Dynamics
	agent    string
}

// NewEnvironment собирает окружение по спецификации.
func NewEnvironment(spec domain.EnvSpec) (*Environment, error) {
	if !(spec.StepSize > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidStepSize, spec.StepSize)
	}

	var planar bool
	switch spec.Mode {
	case Mode2D:
		planar = true
	case Mode3D:
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownMode, spec.Mode, Mode2D, Mode3D)
	}

	env := &Environment{
		Scenario: spec.Scenario,
		Mode:     spec.Mode,
		MaxSteps: spec.MaxSteps,
		stepSize: spec.StepSize,
		objects:  make(domain.Objects),
		dyn:      make(map[string]Dynamics),
	}

	switch spec.Scenario {
	case ScenarioRejoin:
		if err := env.buildRejoin(spec, planar); err != nil {
			return nil, err
		}
	case ScenarioDocking:
		if err := env.buildDocking(spec, planar); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, spec.Scenario)
	}

	return env, nil
}

func (e *Environment) buildRejoin(spec domain.EnvSpec, planar bool) error {
	for _, name := range []string{ObjectLead, ObjectWingman} {
		obj, ok := spec.Objects[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingObject, name)
		}
		pos, err := geometry.VecFrom(obj.Position)
		if err != nil {
			return fmt.Errorf("%s position: %w", name, err)
		}
		e.add(name, NewDubinsAircraft(pos, obj.Heading, obj.Gamma, obj.Roll, obj.Speed, planar))
	}
	e.agent = ObjectWingman

	region, err := geometry.NewRegion(spec.Region, e.objects[ObjectLead])
	if err != nil {
		return err
	}
	e.objects[ObjectRejoinRegion] = region
	return nil
}

func (e *Environment) buildDocking(spec domain.EnvSpec, planar bool) error {
	chief := NewPoint(r3.Vec{}, r3.Vec{})
	if obj, ok := spec.Objects[ObjectChief]; ok {
		pos, err := geometry.VecFrom(obj.Position)
		if err != nil {
			return fmt.Errorf("chief position: %w", err)
		}
		chief.SetPosition(pos)
	}
	e.add(ObjectChief, chief)

	obj, ok := spec.Objects[ObjectDeputy]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingObject, ObjectDeputy)
	}
	pos, err := geometry.VecFrom(obj.Position)
	if err != nil {
		return fmt.Errorf("deputy position: %w", err)
	}
	vel, err := geometry.VecFrom(obj.Velocity)
	if err != nil {
		return fmt.Errorf("deputy velocity: %w", err)
	}
	e.add(ObjectDeputy, NewCWHSpacecraft(pos, vel, spec.MeanMotion, spec.Mass, planar))
	e.agent = ObjectDeputy

	region, err := geometry.NewRegion(spec.Region, chief)
	if err != nil {
		return err
	}
	e.objects[ObjectDockingRegion] = region
	return nil
}

func (e *Environment) add(name string, d Dynamics) {
	e.objects[name] = d
	e.dyn[name] = d
	e.movers = append(e.movers, name)
}

// Objects возвращает объекты эпизода.
func (e *Environment) Objects() domain.Objects {
	return e.objects
}

// StepSize возвращает длительность шага в секундах.
func (e *Environment) StepSize() float64 {
	return e.stepSize
}

// Agent возвращает имя управляемого объекта.
func (e *Environment) Agent() string {
	return e.agent
}

// ControlDim: размер управления агентом.
func (e *Environment) ControlDim() int {
	return e.dyn[e.agent].ControlDim()
}

// Advance продвигает все объекты на один шаг; управление получает только агент.
// Области следуют за опорными объектами и отдельно не продвигаются.
func (e *Environment) Advance(control []float64) error {
	for _, name := range e.movers {
		var u []float64
		if name == e.agent {
			u = control
		}
		if err := e.dyn[name].Advance(e.stepSize, u); err != nil {
			return fmt.Errorf("advance %s: %w", name, err)
		}
	}
	return nil
}
