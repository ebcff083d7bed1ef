package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics: коллекторы эпизодов.
type Metrics struct {
	// EpisodesTotal: завершённые эпизоды по задаче и итогу.
	EpisodesTotal *prometheus.CounterVec

	// FailuresTotal: отказы по коду.
	FailuresTotal *prometheus.CounterVec

	// EpisodeSteps: длина эпизода в шагах.
	EpisodeSteps *prometheus.HistogramVec

	// EpisodeReward: суммарная награда эпизода.
	EpisodeReward *prometheus.HistogramVec

	// StepsTotal: все выполненные шаги пайплайна.
	StepsTotal *prometheus.CounterVec

	// EpisodesInFlight: эпизоды, которые выполняются сейчас.
	EpisodesInFlight prometheus.Gauge
}

// NewMetrics регистрирует коллекторы в reg.
// nil: prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		EpisodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rendezvous_episodes_total",
			Help: "Finished episodes by task and outcome",
		}, []string{"task", "outcome"}),
		FailuresTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rendezvous_failures_total",
			Help: "Failed episodes by task and failure code",
		}, []string{"task", "code"}),
		EpisodeSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rendezvous_episode_steps",
			Help:    "Episode length in steps",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		}, []string{"task"}),
		EpisodeReward: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rendezvous_episode_reward",
			Help:    "Total episode reward",
			Buckets: prometheus.LinearBuckets(-5, 1, 11),
		}, []string{"task"}),
		StepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "rendezvous_steps_total",
			Help: "Pipeline steps by task",
		}, []string{"task"}),
		EpisodesInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "rendezvous_episodes_in_flight",
			Help: "Episodes currently running",
		}),
	}
}

// ObserveEpisode фиксирует итог эпизода.
func (m *Metrics) ObserveEpisode(task, outcome, failure string, steps int, reward float64) {
	m.EpisodesTotal.WithLabelValues(task, outcome).Inc()
	if failure != "" {
		m.FailuresTotal.WithLabelValues(task, failure).Inc()
	}
	m.EpisodeSteps.WithLabelValues(task).Observe(float64(steps))
	m.EpisodeReward.WithLabelValues(task).Observe(reward)
	m.StepsTotal.WithLabelValues(task).Add(float64(steps))
}
