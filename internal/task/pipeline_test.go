package task

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/engine"
	"github.com/shaiso/Rendezvous/internal/geometry"
	"github.com/shaiso/Rendezvous/internal/processors"
	"github.com/shaiso/Rendezvous/internal/sim"
)

const eps = 1e-9

// scene: ведомый, ведущий и неподвижная круговая область
// радиуса 50 в начале координат.
type scene struct {
	wingman *sim.Point
	lead    *sim.Point
	objs    domain.Objects
}

func newScene(t *testing.T, x float64) *scene {
	t.Helper()
	s := &scene{
		wingman: sim.NewPoint(r3.Vec{X: x}, r3.Vec{}),
		lead:    sim.NewPoint(r3.Vec{}, r3.Vec{}),
	}
	anchor := sim.NewPoint(r3.Vec{}, r3.Vec{})
	region, err := geometry.NewRelativeCircle(anchor, 50, r3.Vec{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.objs = domain.Objects{
		sim.ObjectWingman:      s.wingman,
		sim.ObjectLead:         s.lead,
		sim.ObjectRejoinRegion: region,
	}
	return s
}

func stateObservation() *domain.ProcessorDef {
	return &domain.ProcessorDef{
		Name:   "obs",
		Type:   processors.TypeState,
		Config: map[string]any{"object": "wingman", "dims": 2},
	}
}

func dwellSpec() *domain.TaskSpec {
	return &domain.TaskSpec{
		Name: "dwell",
		Processors: domain.ProcessorSpecs{
			Status: []domain.ProcessorDef{
				// Объявлен до своего источника: порядок задаёт DAG
				{Name: "in_rejoin_prev", Type: processors.TypeInRegionPrev, Config: map[string]any{"status": "in_rejoin"}},
				{Name: "in_rejoin", Type: processors.TypeInRegion, Config: map[string]any{"object": "wingman", "region": "rejoin_region"}},
			},
			Reward: []domain.ProcessorDef{
				{Name: "dwell", Type: processors.TypeRegionDwell, Config: map[string]any{
					"reward": 1.0, "status": "in_rejoin", "prev_status": "in_rejoin_prev",
				}},
			},
			Observation: stateObservation(),
		},
	}
}

func crashSpec() *domain.TaskSpec {
	return &domain.TaskSpec{
		Name: "crash",
		Processors: domain.ProcessorSpecs{
			Status: []domain.ProcessorDef{
				{Name: "time_elapsed", Type: processors.TypeTimeElapsed},
				{Name: "lead_distance", Type: processors.TypeDistance, Config: map[string]any{"a": "wingman", "b": "lead"}},
				{Name: "in_rejoin", Type: processors.TypeInRegion, Config: map[string]any{"object": "wingman", "region": "rejoin_region"}},
				{Name: "failure", Type: processors.TypeFailure, Config: map[string]any{
					"conditions": []any{
						map[string]any{"code": "crash", "status": "lead_distance", "op": "lt", "threshold": 10},
						map[string]any{"code": "timeout", "status": "time_elapsed", "op": "gt", "threshold": 500},
						map[string]any{"code": "distance", "status": "lead_distance", "op": "ge", "threshold": 50000},
					},
				}},
				{Name: "success", Type: processors.TypeSuccess, Config: map[string]any{"status": "in_rejoin"}},
			},
			Reward: []domain.ProcessorDef{
				{Name: "decay", Type: processors.TypeTimeDecay, Config: map[string]any{"reward": -0.01}},
				{Name: "terminal", Type: processors.TypeTerminal, Config: map[string]any{
					"success": 1,
					"failure": map[string]any{"crash": -1, "timeout": -1, "distance": -1},
				}},
			},
			Observation: stateObservation(),
		},
	}
}

func newPipeline(t *testing.T, spec *domain.TaskSpec) *Pipeline {
	t.Helper()
	p, err := New(Config{Spec: spec})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestPipeline_Lifecycle(t *testing.T) {
	s := newScene(t, -200)
	p := newPipeline(t, dwellSpec())

	if p.State() != domain.EpisodeInit {
		t.Errorf("expected INIT, got %s", p.State())
	}
	if _, err := p.Step(s.objs, 1); !errors.Is(err, ErrNotReset) {
		t.Errorf("expected ErrNotReset, got %v", err)
	}

	if _, err := p.Reset(s.objs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State() != domain.EpisodeRunning {
		t.Errorf("expected RUNNING, got %s", p.State())
	}

	if _, err := p.Step(s.objs, 0); !errors.Is(err, ErrInvalidStepSize) {
		t.Errorf("expected ErrInvalidStepSize, got %v", err)
	}
}

func TestPipeline_OrderFollowsDependencies(t *testing.T) {
	p := newPipeline(t, dwellSpec())

	want := []string{"in_rejoin", "in_rejoin_prev", "dwell", "obs"}
	if diff := cmp.Diff(want, p.Order()); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	desc := p.Describe()
	if desc[1].Type != processors.TypeInRegionPrev || desc[1].Stage != engine.StageStatus.String() {
		t.Errorf("unexpected description %+v", desc[1])
	}
	if diff := cmp.Diff([]string{"in_rejoin", "in_rejoin_prev"}, desc[2].Reads); diff != "" {
		t.Errorf("reads mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		spec   func() *domain.TaskSpec
		mutate func(*domain.TaskSpec)
		want   error
	}{
		{
			name:   "nil observation",
			mutate: func(s *domain.TaskSpec) { s.Processors.Observation = nil },
			want:   engine.ErrMissingObservation,
		},
		{
			name: "missing dependency",
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Status = s.Processors.Status[:1]
			},
			want: engine.ErrMissingDependency,
		},
		{
			name: "unknown type",
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Reward[0].Type = "bogus"
			},
			want: engine.ErrUnknownProcessorType,
		},
		{
			name: "bad config",
			mutate: func(s *domain.TaskSpec) {
				delete(s.Processors.Reward[0].Config, "reward")
			},
			want: engine.ErrMissingConfig,
		},
		{
			name: "misspelled optional key",
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Reward[0].Config["prev_staus"] = "in_rejoin_prev"
			},
			want: engine.ErrInvalidConfig,
		},
		{
			name: "failure code without terminal reward",
			spec: crashSpec,
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Reward[1].Config["failure"] = map[string]any{"timeout": -1}
			},
			want: engine.ErrInvalidConfig,
		},
		{
			name: "success status of wrong type",
			spec: crashSpec,
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Status[4] = domain.ProcessorDef{Name: "success", Type: processors.TypeTimeElapsed}
			},
			want: engine.ErrInvalidConfig,
		},
		{
			name: "failure status of wrong type",
			spec: crashSpec,
			mutate: func(s *domain.TaskSpec) {
				s.Processors.Status[3] = domain.ProcessorDef{
					Name: "failure", Type: processors.TypeDistance, Config: map[string]any{"a": "wingman", "b": "lead"},
				}
			},
			want: engine.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			build := tt.spec
			if build == nil {
				build = dwellSpec
			}
			spec := build()
			tt.mutate(spec)
			if _, err := New(Config{Spec: spec}); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// dwellPath: x-координата ведомого после каждого шага:
// снаружи на шагах 1–5, внутри на 6–10, выход на шаге 11.
var dwellPath = []float64{-190, -160, -130, -100, -70, -40, -30, -20, -10, 0, 60}

func TestPipeline_DwellAndRefund(t *testing.T) {
	s := newScene(t, -200)
	p := newPipeline(t, dwellSpec())

	if _, err := p.Reset(s.objs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rewards []float64
	for i, x := range dwellPath {
		s.wingman.SetPosition(r3.Vec{X: x})
		res, err := p.Step(s.objs, 1.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rewards = append(rewards, res.Reward)

		if i == 9 {
			if total := p.Info().Reward.Components[0].Total; math.Abs(total-4.0) > eps {
				t.Errorf("expected dwell total 4.0 after step 10, got %v", total)
			}
		}
	}

	want := []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, -4}
	if diff := cmp.Diff(want, rewards); diff != "" {
		t.Errorf("rewards mismatch (-want +got):\n%s", diff)
	}

	info := p.Info()
	if info.Reward.Components[0].Total != 0 {
		t.Errorf("expected dwell total 0 after refund, got %v", info.Reward.Components[0].Total)
	}
	if info.Step != 11 || info.Elapsed != 11 {
		t.Errorf("expected step 11 at 11s, got %d at %v", info.Step, info.Elapsed)
	}
}

func TestPipeline_FailureWinsOverSuccess(t *testing.T) {
	tests := []struct {
		name    string
		wingman r3.Vec
		lead    r3.Vec
		elapsed float64
		want    domain.Termination
		reward  float64
	}{
		{
			// crash и timeout одновременно: побеждает объявленный раньше
			name:    "crash before timeout",
			wingman: r3.Vec{X: 1009},
			lead:    r3.Vec{X: 1000},
			elapsed: 600,
			want:    domain.Termination{Failure: domain.FailureCrash},
			reward:  -1.01,
		},
		{
			name:    "crash at 300s",
			wingman: r3.Vec{X: 1009},
			lead:    r3.Vec{X: 1000},
			elapsed: 300,
			want:    domain.Termination{Failure: domain.FailureCrash},
			reward:  -1.01,
		},
		{
			// Внутри области, но слишком близко к ведущему
			name:    "crash inside region",
			wingman: r3.Vec{X: 5},
			lead:    r3.Vec{},
			elapsed: 1,
			want:    domain.Termination{Success: true, Failure: domain.FailureCrash},
			reward:  -1.01,
		},
		{
			name:    "success",
			wingman: r3.Vec{X: 30},
			lead:    r3.Vec{X: 1000},
			elapsed: 1,
			want:    domain.Termination{Success: true},
			reward:  0.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScene(t, 40000)
			p := newPipeline(t, crashSpec())
			if _, err := p.Reset(s.objs); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			s.wingman.SetPosition(tt.wingman)
			s.lead.SetPosition(tt.lead)
			res, err := p.Step(s.objs, tt.elapsed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !res.Terminal {
				t.Fatal("expected terminal step")
			}
			if res.Termination != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, res.Termination)
			}
			if math.Abs(res.Reward-tt.reward) > eps {
				t.Errorf("expected reward %v, got %v", tt.reward, res.Reward)
			}
			if p.State() != domain.EpisodeTerminal {
				t.Errorf("expected TERMINAL, got %s", p.State())
			}

			if _, err := p.Step(s.objs, 1); !errors.Is(err, ErrTerminal) {
				t.Errorf("expected ErrTerminal, got %v", err)
			}
		})
	}
}

func TestPipeline_ResetAfterTerminal(t *testing.T) {
	s := newScene(t, 40000)
	p := newPipeline(t, crashSpec())
	if _, err := p.Reset(s.objs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.wingman.SetPosition(r3.Vec{X: 30})
	s.lead.SetPosition(r3.Vec{X: 1000})
	if res, err := p.Step(s.objs, 1); err != nil || !res.Terminal {
		t.Fatalf("expected terminal step, got %+v (%v)", res, err)
	}

	s.wingman.SetPosition(r3.Vec{X: 40000})
	s.lead.SetPosition(r3.Vec{})
	status, err := p.Reset(s.objs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.State() != domain.EpisodeRunning {
		t.Errorf("expected RUNNING, got %s", p.State())
	}
	if p.TotalReward() != 0 || p.Steps() != 0 {
		t.Errorf("expected clean totals, got reward %v steps %d", p.TotalReward(), p.Steps())
	}
	if code, _ := status.Failure("failure"); code.IsFailure() {
		t.Errorf("expected no failure after reset, got %s", code)
	}

	// Терминальная награда снова доступна в новом эпизоде
	s.wingman.SetPosition(r3.Vec{X: 30})
	s.lead.SetPosition(r3.Vec{X: 1000})
	res, err := p.Step(s.objs, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Reward-0.99) > eps {
		t.Errorf("expected reward 0.99, got %v", res.Reward)
	}
}

// runDwell проигрывает dwellPath и возвращает награды и наблюдения.
func runDwell(t *testing.T, p *Pipeline) ([]float64, [][]float64) {
	t.Helper()
	s := newScene(t, -200)
	if _, err := p.Reset(s.objs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var (
		rewards []float64
		obs     [][]float64
	)
	for _, x := range dwellPath {
		s.wingman.SetPosition(r3.Vec{X: x})
		res, err := p.Step(s.objs, 1.0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rewards = append(rewards, res.Reward)
		obs = append(obs, res.Observation)
	}
	return rewards, obs
}

func TestPipeline_ReproducibleAcrossResets(t *testing.T) {
	p := newPipeline(t, dwellSpec())

	rewards1, obs1 := runDwell(t, p)
	info1 := p.Info()
	rewards2, obs2 := runDwell(t, p)
	info2 := p.Info()

	if diff := cmp.Diff(rewards1, rewards2); diff != "" {
		t.Errorf("rewards differ between episodes (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(obs1, obs2); diff != "" {
		t.Errorf("observations differ between episodes (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(info1.Reward, info2.Reward); diff != "" {
		t.Errorf("reward info differs between episodes (-first +second):\n%s", diff)
	}
}

// recorder: процессор, который пишет свои вызовы в общий журнал.
type recorder struct {
	name  string
	reads []string
	log   *[]string
	value any
}

func (r *recorder) Name() string    { return r.name }
func (r *recorder) Type() string    { return "recorder" }
func (r *recorder) Reads() []string { return r.reads }

func (r *recorder) Reset(domain.Objects, *domain.Status) error {
	*r.log = append(*r.log, "reset:"+r.name)
	return nil
}

func (r *recorder) Increment(domain.Objects, float64, *domain.Status) error {
	*r.log = append(*r.log, "increment:"+r.name)
	return nil
}

type statusRecorder struct{ *recorder }

func (r statusRecorder) Process(domain.Objects, *domain.Status) (any, error) {
	*r.log = append(*r.log, "process:"+r.name)
	return r.value, nil
}

type rewardRecorder struct{ *recorder }

func (r rewardRecorder) Process(domain.Objects, *domain.Status, domain.Accumulator) (float64, error) {
	*r.log = append(*r.log, "process:"+r.name)
	return 1, nil
}

type observationRecorder struct{ *recorder }

func (r observationRecorder) Space() processors.Space { return processors.BoxSpace(1, -1, 1) }

func (r observationRecorder) Process(domain.Objects, *domain.Status) ([]float64, error) {
	*r.log = append(*r.log, "process:"+r.name)
	return []float64{0}, nil
}

func recorderRegistry(log *[]string) *processors.Registry {
	reads := func(def domain.ProcessorDef) []string {
		if dep, ok := def.Config["reads"].(string); ok {
			return []string{dep}
		}
		return nil
	}
	reg := processors.NewRegistry()
	reg.Register(engine.StageStatus, "recorder", func(def domain.ProcessorDef) (processors.Processor, error) {
		value := def.Config["value"]
		if value == nil {
			value = false
		}
		return statusRecorder{&recorder{name: def.Name, reads: reads(def), log: log, value: value}}, nil
	})
	reg.Register(engine.StageReward, "recorder", func(def domain.ProcessorDef) (processors.Processor, error) {
		return rewardRecorder{&recorder{name: def.Name, reads: reads(def), log: log}}, nil
	})
	reg.Register(engine.StageObservation, "recorder", func(def domain.ProcessorDef) (processors.Processor, error) {
		return observationRecorder{&recorder{name: def.Name, log: log}}, nil
	})
	return reg
}

func recorderSpec() *domain.TaskSpec {
	return &domain.TaskSpec{
		Name: "recorder",
		Processors: domain.ProcessorSpecs{
			Status: []domain.ProcessorDef{
				{Name: "b", Type: "recorder", Config: map[string]any{"reads": "a"}},
				{Name: "a", Type: "recorder"},
			},
			Reward: []domain.ProcessorDef{
				{Name: "r", Type: "recorder", Config: map[string]any{"reads": "b"}},
			},
			Observation: &domain.ProcessorDef{Name: "o", Type: "recorder"},
		},
	}
}

func TestPipeline_CallOrder(t *testing.T) {
	var log []string
	p, err := New(Config{Spec: recorderSpec(), Registry: recorderRegistry(&log)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.Reset(domain.Objects{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{
		"reset:a", "process:a",
		"reset:b", "process:b",
		"reset:r",
		"reset:o", "process:o",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("reset order mismatch (-want +got):\n%s", diff)
	}

	log = log[:0]
	res, err := p.Step(domain.Objects{}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = []string{
		"increment:a", "process:a",
		"increment:b", "process:b",
		"increment:r", "process:r",
		"increment:o", "process:o",
	}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("step order mismatch (-want +got):\n%s", diff)
	}

	// Без ключей success/failure эпизод не завершается
	if res.Terminal {
		t.Error("expected non-terminal step without termination keys")
	}
	if diff := cmp.Diff([]string{"a", "b"}, res.Status.Keys()); diff != "" {
		t.Errorf("status keys mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_InvalidStatusValue(t *testing.T) {
	var log []string
	spec := recorderSpec()
	spec.Processors.Status[1].Config = map[string]any{"value": "oops"}

	p, err := New(Config{Spec: spec, Registry: recorderRegistry(&log)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Reset(domain.Objects{}); !errors.Is(err, ErrInvalidStatusValue) {
		t.Errorf("expected ErrInvalidStatusValue, got %v", err)
	}
}

func TestPipeline_AdvanceWithEnvironment(t *testing.T) {
	spec := dwellSpec()
	env, err := sim.NewEnvironment(domain.EnvSpec{
		Scenario: sim.ScenarioRejoin,
		Mode:     sim.Mode2D,
		StepSize: 1,
		Region:   domain.RegionSpec{Type: "circle", Radius: 50, Offset: []float64{-100, 0, 0}},
		Objects: map[string]domain.ObjectSpec{
			"lead":    {Position: []float64{0, 0, 0}, Speed: 100},
			"wingman": {Position: []float64{-300, 0, 0}, Speed: 100},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := newPipeline(t, spec)
	if _, err := p.Advance(env, nil); !errors.Is(err, ErrNotReset) {
		t.Errorf("expected ErrNotReset, got %v", err)
	}

	if _, err := p.Reset(env.Objects()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := p.Advance(env, make([]float64, env.ControlDim()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Оба летят с одной скоростью: ведомый остаётся в 200 за ведущим
	if diff := cmp.Diff([]float64{-200, 0, 100, 0}, res.Observation); diff != "" {
		t.Errorf("observation mismatch (-want +got):\n%s", diff)
	}
	if p.Info().Elapsed != 1 {
		t.Errorf("expected elapsed 1, got %v", p.Info().Elapsed)
	}
}
