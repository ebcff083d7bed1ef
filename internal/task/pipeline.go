package task

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
	"github.com/shaiso/Rendezvous/internal/processors"
)

// Dynamics: окружение, которое продвигает объекты.
type Dynamics interface {
	// Objects возвращает объекты эпизода.
	Objects() domain.Objects

	// StepSize возвращает длительность шага.
	StepSize() float64

	// Advance продвигает объекты на один шаг с управлением агентом.
	Advance(control []float64) error
}

// Config: конфигурация Pipeline.
type Config struct {
	// Spec: спецификация задачи.
	Spec *domain.TaskSpec

	// Registry: реестр процессоров (default: processors.DefaultRegistry()).
	Registry *processors.Registry

	// Logger
	Logger *slog.Logger
}

// StepResult: результат одного шага.
type StepResult struct {
	Observation []float64
	Reward      float64
	Status      *domain.Status
	Terminal    bool
	Termination domain.Termination
}

// Pipeline: сеть процессоров одной задачи и состояние эпизода.
type Pipeline struct {
	name        string
	dag         *engine.DAG
	status      []processors.StatusProcessor
	rewards     []processors.RewardProcessor
	observation processors.ObservationProcessor

	state   domain.EpisodeState
	accs    []domain.Accumulator
	steps   int
	elapsed float64
	reward  float64
	total   float64
	last    *domain.Status
	obs     []float64
	term    domain.Termination
	objs    domain.Objects

	logger *slog.Logger
}

// New строит пайплайн: валидирует спецификацию, создаёт процессоры
// и проверяет порядок вычисления. Все ошибки конфигурации
// обнаруживаются здесь, до первого шага.
func New(cfg Config) (*Pipeline, error) {
	registry := cfg.Registry
	if registry == nil {
		registry = processors.DefaultRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	spec := cfg.Spec
	if err := engine.Validate(spec, registry); err != nil {
		return nil, err
	}

	decls := make([]engine.Decl, 0, len(spec.Processors.Status)+len(spec.Processors.Reward)+1)
	statusByName := make(map[string]processors.StatusProcessor)
	rewardByName := make(map[string]processors.RewardProcessor)

	for _, def := range spec.Processors.Status {
		sp, err := registry.BuildStatus(def)
		if err != nil {
			return nil, err
		}
		statusByName[def.Name] = sp
		decls = append(decls, engine.Decl{Name: def.Name, Stage: engine.StageStatus, Reads: sp.Reads()})
	}

	for _, def := range spec.Processors.Reward {
		rp, err := registry.BuildReward(def)
		if err != nil {
			return nil, err
		}
		rewardByName[def.Name] = rp
		decls = append(decls, engine.Decl{Name: def.Name, Stage: engine.StageReward, Reads: rp.Reads()})
	}

	if err := checkTermination(statusByName, rewardByName); err != nil {
		return nil, err
	}

	op, err := registry.BuildObservation(*spec.Processors.Observation)
	if err != nil {
		return nil, err
	}
	decls = append(decls, engine.Decl{Name: op.Name(), Stage: engine.StageObservation, Reads: op.Reads()})

	dag, err := engine.BuildDAG(decls)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		name:        spec.Name,
		dag:         dag,
		observation: op,
		state:       domain.EpisodeInit,
		logger:      logger.With("task", spec.Name),
	}
	for _, node := range dag.StageOrder(engine.StageStatus) {
		p.status = append(p.status, statusByName[node.ID()])
	}
	for _, node := range dag.StageOrder(engine.StageReward) {
		p.rewards = append(p.rewards, rewardByName[node.ID()])
	}
	p.accs = make([]domain.Accumulator, len(p.rewards))

	return p, nil
}

// Name возвращает имя задачи.
func (p *Pipeline) Name() string {
	return p.name
}

// Order возвращает имена процессоров в порядке вычисления.
func (p *Pipeline) Order() []string {
	return p.dag.Names()
}

// ProcessorInfo: процессор в порядке вычисления.
type ProcessorInfo struct {
	Name  string   `json:"name"`
	Stage string   `json:"stage"`
	Type  string   `json:"type"`
	Reads []string `json:"reads,omitempty"`
}

// Describe возвращает процессоры в порядке вычисления.
func (p *Pipeline) Describe() []ProcessorInfo {
	types := make(map[string]string, p.dag.Size())
	for _, sp := range p.status {
		types[sp.Name()] = sp.Type()
	}
	for _, rp := range p.rewards {
		types[rp.Name()] = rp.Type()
	}
	types[p.observation.Name()] = p.observation.Type()

	out := make([]ProcessorInfo, 0, len(p.dag.Order))
	for _, node := range p.dag.Order {
		out = append(out, ProcessorInfo{
			Name:  node.ID(),
			Stage: node.Decl.Stage.String(),
			Type:  types[node.ID()],
			Reads: node.Decl.Reads,
		})
	}
	return out
}

// Space возвращает пространство наблюдения.
func (p *Pipeline) Space() processors.Space {
	return p.observation.Space()
}

// State возвращает состояние эпизода.
func (p *Pipeline) State() domain.EpisodeState {
	return p.state
}

// Termination возвращает терминальный статус последнего шага.
func (p *Pipeline) Termination() domain.Termination {
	return p.term
}

// Observation возвращает последнее наблюдение.
func (p *Pipeline) Observation() []float64 {
	return p.obs
}

// TotalReward возвращает сумму наград за эпизод.
func (p *Pipeline) TotalReward() float64 {
	return p.total
}

// Steps возвращает количество выполненных шагов.
func (p *Pipeline) Steps() int {
	return p.steps
}

// Reset начинает новый эпизод.
//
// Статусы сбрасываются в порядке DAG: каждый следующий видит уже
// вычисленные. Затем сбрасываются награды (накопители обнуляются)
// и наблюдение. Пайплайн переходит в RUNNING из любого состояния.
func (p *Pipeline) Reset(objs domain.Objects) (*domain.Status, error) {
	status := domain.NewStatus()
	for _, sp := range p.status {
		if err := sp.Reset(objs, status); err != nil {
			return nil, fmt.Errorf("reset %s: %w", sp.Name(), err)
		}
		if err := p.produce(sp, objs, status); err != nil {
			return nil, err
		}
	}

	for i, rp := range p.rewards {
		if err := rp.Reset(objs, status); err != nil {
			return nil, fmt.Errorf("reset %s: %w", rp.Name(), err)
		}
		p.accs[i] = domain.Accumulator{}
	}

	if err := p.observation.Reset(objs, status); err != nil {
		return nil, fmt.Errorf("reset %s: %w", p.observation.Name(), err)
	}
	obs, err := p.observation.Process(objs, status)
	if err != nil {
		return nil, fmt.Errorf("observation %s: %w", p.observation.Name(), err)
	}

	p.state = domain.EpisodeRunning
	p.steps = 0
	p.elapsed = 0
	p.reward = 0
	p.total = 0
	p.last = status
	p.obs = obs
	p.term = domain.Termination{}
	p.objs = objs

	p.logger.Debug("episode reset", "status", status.Len())

	return status, nil
}

// Advance продвигает окружение и выполняет шаг пайплайна.
// В INIT и TERMINAL окружение не трогается.
func (p *Pipeline) Advance(dyn Dynamics, control []float64) (StepResult, error) {
	if err := p.checkRunning(); err != nil {
		return StepResult{}, err
	}
	if err := dyn.Advance(control); err != nil {
		return StepResult{}, fmt.Errorf("advance: %w", err)
	}
	return p.Step(dyn.Objects(), dyn.StepSize())
}

// Step вычисляет шаг по уже продвинутым объектам.
//
// Ошибка процессора посреди шага оставляет эпизод в
// неконсистентном состоянии: вызывающий должен его отбросить.
func (p *Pipeline) Step(objs domain.Objects, stepSize float64) (StepResult, error) {
	if err := p.checkRunning(); err != nil {
		return StepResult{}, err
	}
	if !(stepSize > 0) {
		return StepResult{}, fmt.Errorf("%w: %v", ErrInvalidStepSize, stepSize)
	}

	status := domain.NewStatus()
	for _, sp := range p.status {
		if err := sp.Increment(objs, stepSize, status); err != nil {
			return StepResult{}, fmt.Errorf("increment %s: %w", sp.Name(), err)
		}
		if err := p.produce(sp, objs, status); err != nil {
			return StepResult{}, err
		}
	}

	var reward float64
	for i, rp := range p.rewards {
		if err := rp.Increment(objs, stepSize, status); err != nil {
			return StepResult{}, fmt.Errorf("increment %s: %w", rp.Name(), err)
		}
		v, err := rp.Process(objs, status, p.accs[i])
		if err != nil {
			return StepResult{}, fmt.Errorf("reward %s: %w", rp.Name(), err)
		}
		p.accs[i].Add(v)
		reward += v
	}

	if err := p.observation.Increment(objs, stepSize, status); err != nil {
		return StepResult{}, fmt.Errorf("increment %s: %w", p.observation.Name(), err)
	}
	obs, err := p.observation.Process(objs, status)
	if err != nil {
		return StepResult{}, fmt.Errorf("observation %s: %w", p.observation.Name(), err)
	}

	term, err := terminationOf(status)
	if err != nil {
		return StepResult{}, err
	}

	p.steps++
	p.elapsed += stepSize
	p.reward = reward
	p.total += reward
	p.last = status
	p.obs = obs
	p.term = term
	p.objs = objs

	p.logger.Debug("step",
		"step", p.steps,
		"reward", reward,
		"total", p.total,
		"terminal", term.Done(),
	)

	if term.Done() {
		p.state = domain.EpisodeTerminal
		p.logger.Info("episode terminal",
			"step", p.steps,
			"outcome", term.Outcome(),
			"failure", string(term.Failure),
			"total_reward", p.total,
		)
	}

	return StepResult{
		Observation: obs,
		Reward:      reward,
		Status:      status,
		Terminal:    term.Done(),
		Termination: term,
	}, nil
}

// Info возвращает структурированную запись последнего шага.
func (p *Pipeline) Info() domain.Info {
	components := make([]domain.ComponentInfo, len(p.rewards))
	for i, rp := range p.rewards {
		components[i] = domain.ComponentInfo{
			Name:  rp.Name(),
			Step:  p.accs[i].Step,
			Total: p.accs[i].Total,
		}
	}

	info := domain.Info{
		Step:    p.steps,
		Elapsed: p.elapsed,
		State:   p.state,
		Success: p.term.Success,
		Failure: p.term.Failure,
		Status:  p.last,
		Reward: domain.RewardInfo{
			Step:       p.reward,
			Total:      p.total,
			Components: components,
		},
		Observation: p.obs,
	}
	if p.objs != nil {
		info.Objects = p.objs.Snapshot()
	}
	return info
}

func (p *Pipeline) checkRunning() error {
	switch p.state {
	case domain.EpisodeInit:
		return ErrNotReset
	case domain.EpisodeTerminal:
		return ErrTerminal
	default:
		return nil
	}
}

// produce вычисляет статус и записывает его в mapping.
func (p *Pipeline) produce(sp processors.StatusProcessor, objs domain.Objects, status *domain.Status) error {
	v, err := sp.Process(objs, status)
	if err != nil {
		return fmt.Errorf("status %s: %w", sp.Name(), err)
	}
	switch v.(type) {
	case bool, float64, domain.FailureCode:
	default:
		return fmt.Errorf("%w: %s returned %T", ErrInvalidStatusValue, sp.Name(), v)
	}
	status.Set(sp.Name(), v)
	return nil
}

// terminationTypes: статусы, по которым пайплайн завершает эпизод,
// и типы процессоров, которые могут их вычислять.
var terminationTypes = []struct{ key, typ string }{
	{domain.StatusSuccess, processors.TypeSuccess},
	{domain.StatusFailure, processors.TypeFailure},
}

// checkTermination проверяет при сборке то, что иначе всплыло бы
// посреди эпизода: тип статусов success/failure и полноту таблиц
// терминальных наград для кодов, которые может выдать failure.
func checkTermination(status map[string]processors.StatusProcessor, rewards map[string]processors.RewardProcessor) error {
	for _, tt := range terminationTypes {
		sp, ok := status[tt.key]
		if ok && sp.Type() != tt.typ {
			return engine.NewValidationError(tt.key, "type",
				fmt.Sprintf("status %q ends the episode and must have type %s, got %s", tt.key, tt.typ, sp.Type()),
				engine.ErrInvalidConfig)
		}
	}

	for _, name := range slices.Sorted(maps.Keys(rewards)) {
		term, ok := rewards[name].(*processors.Terminal)
		if !ok {
			continue
		}
		// Нестандартные типы статуса проверяются при срабатывании (ErrUnknownFailureCode)
		failure, ok := status[term.FailureStatus()].(*processors.Failure)
		if !ok {
			continue
		}
		for _, c := range failure.Conditions() {
			if !term.HasFailureReward(c.Code) {
				return engine.NewValidationError(name, "failure",
					fmt.Sprintf("failure: no reward for code %q emitted by %s", c.Code, failure.Name()),
					engine.ErrInvalidConfig)
			}
		}
	}
	return nil
}

// terminationOf читает success и failure из status mapping.
// Отсутствующий ключ означает "не сработало".
func terminationOf(status *domain.Status) (domain.Termination, error) {
	var term domain.Termination
	if status.Has(domain.StatusSuccess) {
		success, err := status.Bool(domain.StatusSuccess)
		if err != nil {
			return term, err
		}
		term.Success = success
	}
	if status.Has(domain.StatusFailure) {
		code, err := status.Failure(domain.StatusFailure)
		if err != nil {
			return term, err
		}
		term.Failure = code
	}
	return term, nil
}
