package processors

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
)

// Factory создаёт процессор по определению из TaskSpec.
// Ошибки конфигурации возвращаются как *engine.ValidationError.
type Factory func(def domain.ProcessorDef) (Processor, error)

// Registry: реестр фабрик процессоров по стадиям и типам.
//
// Один и тот же тип может существовать в разных стадиях.
// Потокобезопасен.
type Registry struct {
	mu        sync.RWMutex
	factories map[engine.Stage]map[string]Factory
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		factories: map[engine.Stage]map[string]Factory{
			engine.StageStatus:      {},
			engine.StageReward:      {},
			engine.StageObservation: {},
		},
	}
}

// DefaultRegistry создаёт реестр со всеми стандартными процессорами.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(engine.StageStatus, TypeInRegion, NewInRegion)
	r.Register(engine.StageStatus, TypeInRegionPrev, NewInRegionPrev)
	r.Register(engine.StageStatus, TypeRegionTime, NewRegionTime)
	r.Register(engine.StageStatus, TypeTimeElapsed, NewTimeElapsed)
	r.Register(engine.StageStatus, TypeDistance, NewDistance)
	r.Register(engine.StageStatus, TypeFailure, NewFailure)
	r.Register(engine.StageStatus, TypeSuccess, NewSuccess)

	r.Register(engine.StageReward, TypeTimeDecay, NewTimeDecay)
	r.Register(engine.StageReward, TypeDistanceChange, NewDistanceChange)
	r.Register(engine.StageReward, TypeTerminal, NewTerminal)
	r.Register(engine.StageReward, TypeRegionDwell, NewRegionDwell)
	r.Register(engine.StageReward, TypeRegionFirstTime, NewRegionFirstTime)

	r.Register(engine.StageObservation, TypeRelative, NewRelative)
	r.Register(engine.StageObservation, TypeDubins2D, NewDubins2D)
	r.Register(engine.StageObservation, TypeDubins3D, NewDubins3D)
	r.Register(engine.StageObservation, TypeState, NewState)

	return r
}

// Register регистрирует фабрику.
// Если тип уже существует в стадии, он будет перезаписан.
func (r *Registry) Register(stage engine.Stage, typ string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories[stage] == nil {
		r.factories[stage] = make(map[string]Factory)
	}
	r.factories[stage][typ] = f
}

// Get возвращает фабрику по стадии и типу.
// Возвращает ErrProcessorNotFound, если тип не найден.
func (r *Registry) Get(stage engine.Stage, typ string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, exists := r.factories[stage][typ]
	if !exists {
		return nil, fmt.Errorf("%w: %s %s", ErrProcessorNotFound, stage, typ)
	}
	return f, nil
}

// HasType проверяет, зарегистрирован ли тип (реализует engine.TypeSet).
func (r *Registry) HasType(stage engine.Stage, typ string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[stage][typ]
	return exists
}

// Types возвращает отсортированный список типов стадии.
func (r *Registry) Types(stage engine.Stage) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories[stage]))
	for t := range r.factories[stage] {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных фабрик во всех стадиях.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, m := range r.factories {
		n += len(m)
	}
	return n
}

// Unregister удаляет фабрику из реестра.
func (r *Registry) Unregister(stage engine.Stage, typ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories[stage], typ)
}

// build создаёт процессор и оборачивает ошибку неизвестного типа.
func (r *Registry) build(stage engine.Stage, def domain.ProcessorDef) (Processor, error) {
	f, err := r.Get(stage, def.Type)
	if err != nil {
		return nil, engine.NewValidationError(def.Name, "type",
			fmt.Sprintf("unknown %s processor type: %s", stage, def.Type), engine.ErrUnknownProcessorType)
	}
	return f(def)
}

// BuildStatus создаёт процессор статуса.
func (r *Registry) BuildStatus(def domain.ProcessorDef) (StatusProcessor, error) {
	p, err := r.build(engine.StageStatus, def)
	if err != nil {
		return nil, err
	}
	sp, ok := p.(StatusProcessor)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s) is not a status processor", ErrStageMismatch, def.Name, def.Type)
	}
	return sp, nil
}

// BuildReward создаёт процессор награды.
func (r *Registry) BuildReward(def domain.ProcessorDef) (RewardProcessor, error) {
	p, err := r.build(engine.StageReward, def)
	if err != nil {
		return nil, err
	}
	rp, ok := p.(RewardProcessor)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s) is not a reward processor", ErrStageMismatch, def.Name, def.Type)
	}
	return rp, nil
}

// BuildObservation создаёт процессор наблюдения.
func (r *Registry) BuildObservation(def domain.ProcessorDef) (ObservationProcessor, error) {
	p, err := r.build(engine.StageObservation, def)
	if err != nil {
		return nil, err
	}
	op, ok := p.(ObservationProcessor)
	if !ok {
		return nil, fmt.Errorf("%w: %s (%s) is not an observation processor", ErrStageMismatch, def.Name, def.Type)
	}
	return op, nil
}
