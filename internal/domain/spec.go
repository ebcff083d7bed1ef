package domain

// TaskSpec описывает задачу: окружение и сеть процессоров.
//
// Загружается из YAML (engine.ParseTaskSpec). Это "программа"
// для пайплайна: какие статусы вычислять, как шейпить reward
// и какое наблюдение отдавать обучаемой политике.
type TaskSpec struct {
	// Name: имя задачи (например, "rejoin-2d", "docking-3d").
	Name string `yaml:"name" json:"name"`

	// Description: описание задачи.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Env: параметры окружения (сценарий, шаг, начальные условия).
	Env EnvSpec `yaml:"env" json:"env"`

	// Processors: процессоры статусов, наград и наблюдения.
	Processors ProcessorSpecs `yaml:"processors" json:"processors"`
}

// EnvSpec: параметры окружения и начальная расстановка объектов.
type EnvSpec struct {
	// Scenario: "rejoin" или "docking".
	Scenario string `yaml:"scenario" json:"scenario"`

	// Mode: "2d" или "3d".
	Mode string `yaml:"mode" json:"mode"`

	// StepSize: длительность шага в секундах.
	StepSize float64 `yaml:"step_size" json:"step_size"`

	// MaxSteps: ограничение длины эпизода в раннере (0: без ограничения).
	MaxSteps int `yaml:"max_steps,omitempty" json:"max_steps,omitempty"`

	// MeanMotion: среднее движение n для CWH (рад/с).
	MeanMotion float64 `yaml:"mean_motion,omitempty" json:"mean_motion,omitempty"`

	// Mass: масса космического аппарата для CWH (кг).
	Mass float64 `yaml:"mass,omitempty" json:"mass,omitempty"`

	// Region: целевая область (rejoin или docking).
	Region RegionSpec `yaml:"region" json:"region"`

	// Objects: начальные условия объектов по имени.
	Objects map[string]ObjectSpec `yaml:"objects" json:"objects"`
}

// RegionSpec: параметры целевой области.
type RegionSpec struct {
	// Type: "circle" или "cylinder".
	Type string `yaml:"type" json:"type"`

	// Radius: радиус в плоскости XY.
	Radius float64 `yaml:"radius" json:"radius"`

	// Height: высота цилиндра (только для cylinder).
	Height float64 `yaml:"height,omitempty" json:"height,omitempty"`

	// Offset: смещение центра в системе координат опорного объекта.
	Offset []float64 `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// ObjectSpec: начальное состояние объекта.
type ObjectSpec struct {
	Position []float64 `yaml:"position,omitempty" json:"position,omitempty"`
	Velocity []float64 `yaml:"velocity,omitempty" json:"velocity,omitempty"`

	// Heading, Speed, Gamma, Roll: для моделей Dubins.
	Heading float64 `yaml:"heading,omitempty" json:"heading,omitempty"`
	Speed   float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
	Gamma   float64 `yaml:"gamma,omitempty" json:"gamma,omitempty"`
	Roll    float64 `yaml:"roll,omitempty" json:"roll,omitempty"`
}

// ProcessorSpecs: процессоры по стадиям вычисления.
type ProcessorSpecs struct {
	Status      []ProcessorDef `yaml:"status" json:"status"`
	Reward      []ProcessorDef `yaml:"reward" json:"reward"`
	Observation *ProcessorDef  `yaml:"observation" json:"observation"`
}

// ProcessorDef: определение одного процессора.
type ProcessorDef struct {
	// Name: уникальное имя. Для статусов это ключ в status mapping.
	Name string `yaml:"name" json:"name"`

	// Type: тип процессора (in_region, region_dwell, relative, ...).
	Type string `yaml:"type" json:"type"`

	// Config: конфигурация, зависит от типа.
	Config map[string]any `yaml:"config,omitempty" json:"config,omitempty"`
}
