package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/Rendezvous/internal/domain"
	"github.com/shaiso/Rendezvous/internal/repo"
	"github.com/shaiso/Rendezvous/internal/telemetry"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// storeReady отвечает 503, если хранилище не подключено.
func (h *Handler) storeReady(w http.ResponseWriter) bool {
	if h.episodes == nil {
		fail(w, http.StatusServiceUnavailable, "episode store is not configured")
		return false
	}
	return true
}

// episodeID разбирает {id} из пути, отвечая 400 на мусор.
func episodeID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		fail(w, http.StatusBadRequest, "invalid episode id")
		return uuid.Nil, false
	}
	return id, true
}

// ListEpisodes: GET /api/v1/episodes?task=&outcome=&limit=&offset=
func (h *Handler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	if !h.storeReady(w) {
		return
	}

	q := r.URL.Query()
	filter := repo.EpisodeFilter{
		Task:    q.Get("task"),
		Outcome: domain.Outcome(q.Get("outcome")),
		Limit:   queryInt(q.Get("limit"), defaultListLimit),
		Offset:  queryInt(q.Get("offset"), 0),
	}
	switch {
	case filter.Limit < 1 || filter.Limit > maxListLimit:
		fail(w, http.StatusBadRequest, "limit must be in [1, 500]")
		return
	case filter.Offset < 0:
		fail(w, http.StatusBadRequest, "offset must be non-negative")
		return
	}

	episodes, err := h.episodes.List(r.Context(), filter)
	if failStore(w, r, err, "") {
		return
	}

	out := make([]EpisodeResponse, 0, len(episodes))
	for _, ep := range episodes {
		out = append(out, EpisodeFromDomain(ep))
	}
	respondList(w, out, len(out))
}

// GetEpisode: GET /api/v1/episodes/{id}
func (h *Handler) GetEpisode(w http.ResponseWriter, r *http.Request) {
	if !h.storeReady(w) {
		return
	}
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	ep, err := h.episodes.GetByID(r.Context(), id)
	if failStore(w, r, err, "episode not found") {
		return
	}
	respond(w, http.StatusOK, EpisodeFromDomain(*ep))
}

// ListEpisodeSteps: GET /api/v1/episodes/{id}/steps
//
// Неизвестный эпизод даёт 404, эпизод без шагов даёт пустой список.
func (h *Handler) ListEpisodeSteps(w http.ResponseWriter, r *http.Request) {
	if !h.storeReady(w) {
		return
	}
	id, ok := episodeID(w, r)
	if !ok {
		return
	}

	if _, err := h.episodes.GetByID(r.Context(), id); failStore(w, r, err, "episode not found") {
		return
	}
	steps, err := h.episodes.Steps(r.Context(), id)
	if failStore(w, r, err, "") {
		return
	}
	if steps == nil {
		steps = []domain.StepRecord{}
	}
	respondList(w, steps, len(steps))
}

// RequestEpisodes: POST /api/v1/episodes, ставит прогон в очередь раннера (202).
func (h *Handler) RequestEpisodes(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		fail(w, http.StatusServiceUnavailable, "message queue is not configured")
		return
	}

	var req RequestEpisodesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}

	payload := req.Payload()
	if err := h.publisher.PublishEpisodeRequested(r.Context(), payload); err != nil {
		failInternal(w, r, err)
		return
	}

	telemetry.FromContext(r.Context()).Info("episodes requested",
		"task", payload.Task,
		"episodes", payload.Episodes,
		"seed", payload.Seed,
	)
	respond(w, http.StatusAccepted, payload)
}

// queryInt: пустое или нечисловое значение даёт def.
func queryInt(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
