package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/mq"
	"github.com/shaiso/Rendezvous/internal/repo"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

type fakeEpisodes struct {
	episodes map[uuid.UUID]domain.Episode
	steps    map[uuid.UUID][]domain.StepRecord
	filter   repo.EpisodeFilter
	err      error
}

func (f *fakeEpisodes) GetByID(_ context.Context, id uuid.UUID) (*domain.Episode, error) {
	ep, ok := f.episodes[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &ep, nil
}

func (f *fakeEpisodes) List(_ context.Context, filter repo.EpisodeFilter) ([]domain.Episode, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Episode
	for _, ep := range f.episodes {
		if filter.Task != "" && ep.Task != filter.Task {
			continue
		}
		out = append(out, ep)
	}
	return out, nil
}

func (f *fakeEpisodes) Steps(_ context.Context, id uuid.UUID) ([]domain.StepRecord, error) {
	return f.steps[id], nil
}

type fakePublisher struct {
	got []mq.EpisodeRequestedPayload
	err error
}

func (f *fakePublisher) PublishEpisodeRequested(_ context.Context, p mq.EpisodeRequestedPayload) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, p)
	return nil
}

func newTestServer(t *testing.T, episodes EpisodeReader, pub RequestPublisher) *httptest.Server {
	t.Helper()
	h := NewHandler(Config{
		Episodes:  episodes,
		Publisher: pub,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func finishedEpisode(task string, seed int64) domain.Episode {
	ep := domain.NewEpisode(task, "zero", seed)
	ep.MarkRunning()
	ep.MarkFinished(domain.Termination{Success: true}, 42, 1.25)
	return *ep
}

func TestGetEpisode(t *testing.T) {
	ep := finishedEpisode("rejoin-2d", 3)
	store := &fakeEpisodes{episodes: map[uuid.UUID]domain.Episode{ep.ID: ep}}
	srv := newTestServer(t, store, nil)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"found", "/api/v1/episodes/" + ep.ID.String(), http.StatusOK},
		{"not found", "/api/v1/episodes/" + uuid.NewString(), http.StatusNotFound},
		{"invalid id", "/api/v1/episodes/nope", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.status != http.StatusOK {
				return
			}

			var body struct {
				Data EpisodeResponse `json:"data"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Data.Outcome != domain.OutcomeSuccess || body.Data.Steps != 42 {
				t.Errorf("unexpected episode: %+v", body.Data)
			}
		})
	}
}

func TestListEpisodes_Filter(t *testing.T) {
	a := finishedEpisode("rejoin-2d", 1)
	b := finishedEpisode("docking-2d", 2)
	store := &fakeEpisodes{episodes: map[uuid.UUID]domain.Episode{a.ID: a, b.ID: b}}
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/episodes?task=docking-2d&outcome=success&limit=10&offset=5")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	want := repo.EpisodeFilter{Task: "docking-2d", Outcome: domain.OutcomeSuccess, Limit: 10, Offset: 5}
	if diff := cmp.Diff(want, store.filter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	var body struct {
		Data  []EpisodeResponse `json:"data"`
		Total int               `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 || body.Data[0].ID != b.ID {
		t.Errorf("expected only %s, got %+v", b.ID, body.Data)
	}
}

func TestListEpisodes_Errors(t *testing.T) {
	tests := []struct {
		name   string
		store  EpisodeReader
		query  string
		status int
	}{
		{"limit too large", &fakeEpisodes{}, "?limit=10000", http.StatusBadRequest},
		{"negative offset", &fakeEpisodes{}, "?offset=-1", http.StatusBadRequest},
		{"store error", &fakeEpisodes{err: errors.New("boom")}, "", http.StatusInternalServerError},
		{"no store", nil, "", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.store, nil)
			resp, err := http.Get(srv.URL + "/api/v1/episodes" + tt.query)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestListEpisodeSteps(t *testing.T) {
	ep := finishedEpisode("rejoin-2d", 1)
	store := &fakeEpisodes{
		episodes: map[uuid.UUID]domain.Episode{ep.ID: ep},
		steps: map[uuid.UUID][]domain.StepRecord{
			ep.ID: {{Step: 1, Reward: 0.5}, {Step: 2, Reward: -0.5}},
		},
	}
	srv := newTestServer(t, store, nil)

	resp, err := http.Get(srv.URL + "/api/v1/episodes/" + ep.ID.String() + "/steps")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data []domain.StepRecord `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 2 || body.Data[1].Reward != -0.5 {
		t.Errorf("unexpected steps: %+v", body.Data)
	}

	resp, err = http.Get(srv.URL + "/api/v1/episodes/" + uuid.NewString() + "/steps")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown episode, got %d", resp.StatusCode)
	}
}

func TestRequestEpisodes(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		want   *mq.EpisodeRequestedPayload
	}{
		{
			name:   "defaults",
			body:   `{"task": "configs/tasks/rejoin-2d.yaml", "seed": 9}`,
			status: http.StatusAccepted,
			want:   &mq.EpisodeRequestedPayload{Task: "configs/tasks/rejoin-2d.yaml", Policy: "zero", Seed: 9, Episodes: 1},
		},
		{
			name:   "explicit",
			body:   `{"task": "t.yaml", "vars": {"radius": "200"}, "policy": "random", "episodes": 5}`,
			status: http.StatusAccepted,
			want: &mq.EpisodeRequestedPayload{
				Task: "t.yaml", Vars: map[string]string{"radius": "200"}, Policy: "random", Episodes: 5,
			},
		},
		{"missing task", `{"episodes": 1}`, http.StatusBadRequest, nil},
		{"unknown policy", `{"task": "t.yaml", "policy": "ppo"}`, http.StatusBadRequest, nil},
		{"too many episodes", `{"task": "t.yaml", "episodes": 5000}`, http.StatusBadRequest, nil},
		{"malformed", `{`, http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			srv := newTestServer(t, nil, pub)

			resp, err := http.Post(srv.URL+"/api/v1/episodes", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, resp.StatusCode)
			}
			if tt.want == nil {
				if len(pub.got) != 0 {
					t.Errorf("expected nothing published, got %+v", pub.got)
				}
				return
			}
			if diff := cmp.Diff([]mq.EpisodeRequestedPayload{*tt.want}, pub.got); diff != "" {
				t.Errorf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestEpisodes_NoPublisher(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp, err := http.Post(srv.URL+"/api/v1/episodes", "application/json", strings.NewReader(`{"task": "t.yaml"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
}

func TestRecovery(t *testing.T) {
	var logs strings.Builder
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := Chain(Logging(logger), Recovery())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-panic")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != ErrCodeInternalError {
		t.Errorf("expected %s, got %s", ErrCodeInternalError, body.Error.Code)
	}
	if out := logs.String(); !strings.Contains(out, "panic recovered") || !strings.Contains(out, "request_id=req-panic") {
		t.Errorf("expected panic logged with request id, got %q", out)
	}
}

func TestCodeFor(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusBadRequest, ErrCodeBadRequest},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusServiceUnavailable, ErrCodeUnavailable},
		{http.StatusTeapot, ErrCodeInternalError},
	}

	for _, tt := range tests {
		if got := codeFor(tt.status); got != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.status, tt.want, got)
		}
	}
}

func TestLogging_RequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if telemetry.FromContext(r.Context()) == slog.Default() {
			t.Error("expected request logger in context")
		}
		seen = w.Header().Get(HeaderRequestID)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(HeaderRequestID); got != "req-1" || seen != "req-1" {
		t.Errorf("expected request id req-1 to be propagated, got %q / %q", got, seen)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(rec.Header().Get(HeaderRequestID)); err != nil {
		t.Errorf("expected generated uuid request id, got %q", rec.Header().Get(HeaderRequestID))
	}
}
