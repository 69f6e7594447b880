package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cosmos-backend/internal/anomaly"
	"cosmos-backend/internal/config"
	"cosmos-backend/internal/endcondition"
	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/events"
	"cosmos-backend/internal/lock"
	"cosmos-backend/internal/metrics"
	"cosmos-backend/internal/orchestrator"
	"cosmos-backend/internal/physics"
	"cosmos-backend/internal/predictor"
	"cosmos-backend/internal/repository"
	"cosmos-backend/internal/universe"
	"cosmos-backend/internal/validation"
)

// universeStore is the slice of UniverseRepository the handlers depend on;
// defining it here lets handler tests substitute a mock.
type universeStore interface {
	Get(ctx context.Context, id string) (*universe.Universe, error)
	ListByOwner(ctx context.Context, ownerID string) ([]repository.UniverseSummary, error)
	Create(ctx context.Context, u *universe.Universe) error
	Save(ctx context.Context, u *universe.Universe) error
	SaveWithRetry(ctx context.Context, u **universe.Universe, mutate func(*universe.Universe) error) error
	Delete(ctx context.Context, id string) error
}

// Handler wires the HTTP surface §6.1 describes to the simulation kernel.
type Handler struct {
	repo      universeStore
	locks     *lock.Registry
	distLock  *lock.DistributedLock
	publisher *events.Publisher
	constants *config.ConstantsStore
	validate  *validation.Validator
	verbose   bool
}

// NewHandler builds a Handler. publisher and distLock may be nil: audit
// events and cross-instance locking are then skipped rather than failing
// the request (the in-process Registry still serializes same-instance
// callers either way).
func NewHandler(repo universeStore, locks *lock.Registry, distLock *lock.DistributedLock, publisher *events.Publisher, constants *config.ConstantsStore, verbose bool) *Handler {
	return &Handler{
		repo:      repo,
		locks:     locks,
		distLock:  distLock,
		publisher: publisher,
		constants: constants,
		validate:  validation.New(),
		verbose:   verbose,
	}
}

// acquireExclusive takes the in-process lock for universeID, plus the
// cross-instance Redis lock when distLock is configured, and returns a
// release function the caller must call exactly once.
func (h *Handler) acquireExclusive(ctx context.Context, universeID string) (func(), error) {
	releaseLocal := h.locks.Acquire(universeID)
	if h.distLock == nil {
		return releaseLocal, nil
	}
	releaseDist, err := h.distLock.Acquire(ctx, universeID)
	if err != nil {
		releaseLocal()
		return nil, errors.Persistence("failed to acquire distributed lock", err)
	}
	return func() {
		_ = releaseDist(context.Background())
		releaseLocal()
	}, nil
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]interface{}) {
	payload["ok"] = true
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	errors.RespondWithError(w, err, h.verbose)
}

// loadOwned fetches the universe identified by the :id path param and
// verifies it belongs to the caller, per §6.1's ownership rule.
func (h *Handler) loadOwned(r *http.Request) (*universe.Universe, error) {
	return h.loadOwnedByID(r.Context(), chi.URLParam(r, "id"), userIDFromContext(r.Context()))
}

// loadOwnedByID fetches and ownership-checks a universe without depending on
// an *http.Request, so mutating handlers can call it from inside the
// exclusive lock §6.1 requires load+simulate+persist to hold for.
func (h *Handler) loadOwnedByID(ctx context.Context, id, ownerID string) (*universe.Universe, error) {
	u, err := h.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.OwnerID != ownerID {
		return nil, errors.ErrNotOwner
	}
	return u, nil
}

// ListUniverses handles GET /universe.
func (h *Handler) ListUniverses(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.repo.ListByOwner(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"universes": summaries})
}

type createUniverseRequest struct {
	Name              string                      `json:"name"`
	Seed              string                      `json:"seed"`
	Difficulty        universe.Difficulty         `json:"difficulty"`
	Constants         *universe.Constants         `json:"constants"`
	InitialConditions *universe.InitialConditions `json:"initialConditions"`
}

// CreateUniverse handles POST /universe.
func (h *Handler) CreateUniverse(w http.ResponseWriter, r *http.Request) {
	var req createUniverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, errors.Validation("malformed request body"))
		return
	}

	if req.Difficulty == "" {
		req.Difficulty = universe.DifficultyBeginner
	}
	allowed := []string{string(universe.DifficultyBeginner), string(universe.DifficultyIntermediate), string(universe.DifficultyAdvanced)}
	if err := h.validate.ValidateOneOf(string(req.Difficulty), "difficulty", allowed); err != nil {
		h.fail(w, errors.ErrInvalidDifficulty)
		return
	}

	if req.Name == "" {
		req.Name = "Untitled Universe"
	}
	req.Name = h.validate.SanitizeString(req.Name)

	constants := h.constants.Get(req.Difficulty)
	if req.Constants != nil {
		constants = *req.Constants
	}
	var ic universe.InitialConditions
	if req.InitialConditions != nil {
		ic = *req.InitialConditions
	}

	u := universe.New(userIDFromContext(r.Context()), req.Name, req.Seed, req.Difficulty, constants, ic)
	if err := h.repo.Create(r.Context(), u); err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"universe": u})
}

// GetUniverse handles GET /universe/:id.
func (h *Handler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"universe": u})
}

// DeleteUniverse handles DELETE /universe/:id.
func (h *Handler) DeleteUniverse(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.repo.Delete(r.Context(), u.ID); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{})
}

type simulateRequest struct {
	Steps int `json:"steps"`
}

// SimulateUniverse handles POST /universe/:id/simulate.
func (h *Handler) SimulateUniverse(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := userIDFromContext(r.Context())

	var req simulateRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Steps <= 0 {
		req.Steps = 1
	}

	release, err := h.acquireExclusive(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer release()

	u, err := h.loadOwnedByID(r.Context(), id, ownerID)
	if err != nil {
		h.fail(w, err)
		return
	}

	var report orchestrator.Report
	mutate := func(u *universe.Universe) error {
		start := time.Now()
		var runErr error
		report, runErr = orchestrator.Run(r.Context(), u, req.Steps, orchestrator.Options{})
		metrics.RecordSimulationTick(time.Since(start))
		return runErr
	}
	if err := h.repo.SaveWithRetry(r.Context(), &u, mutate); err != nil {
		h.fail(w, err)
		return
	}

	for _, a := range report.CreatedAnomalies {
		metrics.RecordAnomalyGenerated(string(a.Type))
	}
	if report.EndStatus.Ended {
		metrics.RecordUniverseEnded(report.EndStatus.Condition)
	}
	if h.publisher != nil {
		_ = h.publisher.PublishTicked(events.TickedEvent{
			UniverseID:     u.ID,
			TicksRun:       report.TicksRun,
			AgeGyr:         u.CurrentState.Age / 1e9,
			StabilityIndex: u.CurrentState.StabilityIndex,
			EndCondition:   report.EndStatus.Condition,
		})
		if report.EndStatus.Ended {
			_ = h.publisher.PublishEnded(events.EndedEvent{
				UniverseID: u.ID,
				Condition:  report.EndStatus.Condition,
				Reason:     report.EndStatus.Reason,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

type resolveAnomalyRequest struct {
	AnomalyID string `json:"anomalyId"`
}

// ResolveAnomaly handles POST /universe/:id/resolve-anomaly.
func (h *Handler) ResolveAnomaly(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := userIDFromContext(r.Context())

	var req resolveAnomalyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AnomalyID == "" {
		h.fail(w, errors.ErrMissingAnomalyID)
		return
	}

	release, err := h.acquireExclusive(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer release()

	u, err := h.loadOwnedByID(r.Context(), id, ownerID)
	if err != nil {
		h.fail(w, err)
		return
	}

	var result anomaly.ResolutionResult
	mutate := func(u *universe.Universe) error {
		var resolveErr error
		result, resolveErr = anomaly.Resolve(u, req.AnomalyID, time.Now())
		return resolveErr
	}
	if err := h.repo.SaveWithRetry(r.Context(), &u, mutate); err != nil {
		h.fail(w, err)
		return
	}

	metrics.RecordAnomalyResolved()
	if h.publisher != nil {
		_ = h.publisher.PublishAnomalyResolved(events.AnomalyResolvedEvent{
			UniverseID: u.ID,
			AnomalyID:  req.AnomalyID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"resolution": result})
}

// Stats handles GET /universe/:id/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	diffOpts := universe.ResolveDifficultyOptions(u.Difficulty)
	eng := physics.New(u, physics.Options{TimeStepYears: diffOpts.TimeStepYears})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":            eng.GetStatistics(),
		"stabilityHistory": eng.GetStabilityHistory(),
	})
}

// Anomalies handles GET /universe/:id/anomalies.
func (h *Handler) Anomalies(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var active, resolved []universe.Anomaly
	for _, a := range u.Anomalies {
		if a.Resolved {
			resolved = append(resolved, a)
		} else {
			active = append(active, a)
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"active": active, "resolved": resolved})
}

// Predictions handles GET /universe/:id/predictions.
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	opts := universe.ResolveDifficultyOptions(u.Difficulty)
	report := predictor.Predict(u, predictor.Options{
		DifficultyModifier:      opts.DifficultyModifier,
		AnomalyProbabilityScale: opts.AnomalyProbabilityScale,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": report})
}

// EndConditions handles GET /universe/:id/end-conditions.
func (h *Handler) EndConditions(w http.ResponseWriter, r *http.Request) {
	u, err := h.loadOwned(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	opts := universe.ResolveDifficultyOptions(u.Difficulty)
	endOpts := endcondition.Options{DifficultyModifier: opts.DifficultyModifier}
	result := endcondition.Peek(u, endOpts)
	warnings := endcondition.Warnings(u, endOpts)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": result, "warnings": warnings})
}

type cleanupAnomaliesRequest struct {
	KeepRecentMinutes int `json:"keepRecentMinutes"`
}

// CleanupAnomalies handles POST /universe/:id/cleanup-anomalies.
func (h *Handler) CleanupAnomalies(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ownerID := userIDFromContext(r.Context())

	var req cleanupAnomaliesRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.KeepRecentMinutes <= 0 {
		req.KeepRecentMinutes = 5
	}

	release, err := h.acquireExclusive(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer release()

	u, err := h.loadOwnedByID(r.Context(), id, ownerID)
	if err != nil {
		h.fail(w, err)
		return
	}

	var removed, remaining int
	mutate := func(u *universe.Universe) error {
		removed, remaining = anomaly.Cleanup(u, time.Now(), time.Duration(req.KeepRecentMinutes)*time.Minute)
		return nil
	}
	if err := h.repo.SaveWithRetry(r.Context(), &u, mutate); err != nil {
		h.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"removed": removed, "remaining": remaining})
}

