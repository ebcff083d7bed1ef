package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/shaiso/Rendezvous/internal/domain"
)

func TestDefaultTopology_Consistent(t *testing.T) {
	topo := DefaultTopology()

	exchanges := make(map[Exchange]bool)
	for _, ex := range topo.Exchanges {
		exchanges[ex.Name] = true
	}
	queues := make(map[Queue]bool)
	for _, q := range topo.Queues {
		queues[q.Name] = true
	}

	for _, b := range topo.Bindings {
		if !exchanges[b.Exchange] {
			t.Errorf("binding %s uses undeclared exchange %s", b.Queue, b.Exchange)
		}
		if !queues[b.Queue] {
			t.Errorf("binding uses undeclared queue %s", b.Queue)
		}
	}

	// Только очередь запросов уходит в DLQ
	for _, q := range topo.Queues {
		_, hasDLQ := q.Args["x-dead-letter-exchange"]
		if hasDLQ != (q.Name == QueueEpisodesRequested) {
			t.Errorf("queue %s: unexpected dead-letter setup %v", q.Name, q.Args)
		}
	}
}

func TestParsePayload(t *testing.T) {
	ep := domain.NewEpisode("rejoin-2d", "random", 7)
	ep.MarkFinished(domain.Termination{Failure: domain.FailureCrash}, 42, -1.5)

	msg := NewMessage(MessageTypeEpisodeCompleted, CompletedPayload(ep))

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	delivered, err := decodeMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered.ID != msg.ID || delivered.Type != MessageTypeEpisodeCompleted {
		t.Errorf("envelope mismatch: %+v", delivered)
	}

	got, err := ParsePayload[EpisodeCompletedPayload](&delivered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Без кодирования: payload остаётся структурой
	direct, err := ParsePayload[EpisodeCompletedPayload](msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(got, direct); diff != "" {
		t.Errorf("direct payload mismatch (-delivered +direct):\n%s", diff)
	}

	want := EpisodeCompletedPayload{
		EpisodeID:   ep.ID,
		Task:        "rejoin-2d",
		Seed:        7,
		Outcome:     domain.OutcomeFailure,
		Failure:     domain.FailureCrash,
		Steps:       42,
		TotalReward: -1.5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestSettle(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        disposition
	}{
		{"ok", nil, false, dispAck},
		{"ok redelivered", nil, true, dispAck},
		{"transient first delivery", errors.New("db down"), false, dispRequeue},
		{"transient redelivered", errors.New("db down"), true, dispDeadLetter},
		{"permanent", fmt.Errorf("bad task: %w", ErrPermanent), false, dispDeadLetter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := settle(tt.err, tt.redelivered); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDecodeMessage_Invalid(t *testing.T) {
	if _, err := decodeMessage([]byte("{")); err == nil {
		t.Error("expected error for truncated body")
	}
}

func TestNextBackoff(t *testing.T) {
	d := time.Second
	var got []time.Duration
	for range 6 {
		d = nextBackoff(d, 30*time.Second)
		got = append(got, d)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 30 * time.Second, 30 * time.Second}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("backoff mismatch (-want +got):\n%s", diff)
	}
}

func TestConnectionConfig_Defaults(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")

	cfg := ConnectionConfig{MinBackoff: time.Minute}.withDefaults()

	if cfg.URL != "amqp://guest:guest@mq:5672/" {
		t.Errorf("expected URL from env, got %s", cfg.URL)
	}
	if cfg.Name != defaultConnectionName || cfg.Heartbeat != defaultHeartbeat {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MaxBackoff != time.Minute {
		t.Errorf("expected max backoff raised to min backoff, got %v", cfg.MaxBackoff)
	}
	if cfg.Logger == nil {
		t.Error("expected default logger")
	}
}
