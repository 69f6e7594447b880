package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cosmos-backend/internal/config"
	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/lock"
	"cosmos-backend/internal/repository"
	"cosmos-backend/internal/universe"
)

// mockStore is a mock implementation of universeStore.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, id string) (*universe.Universe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*universe.Universe), args.Error(1)
}

func (m *mockStore) ListByOwner(ctx context.Context, ownerID string) ([]repository.UniverseSummary, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]repository.UniverseSummary), args.Error(1)
}

func (m *mockStore) Create(ctx context.Context, u *universe.Universe) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockStore) Save(ctx context.Context, u *universe.Universe) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockStore) SaveWithRetry(ctx context.Context, u **universe.Universe, mutate func(*universe.Universe) error) error {
	if err := mutate(*u); err != nil {
		return err
	}
	args := m.Called(ctx, *u)
	return args.Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestHandler(store *mockStore) *Handler {
	return NewHandler(store, lock.NewRegistry(), nil, nil, config.NewConstantsStore(), true)
}

func withUserID(req *http.Request, id string) *http.Request {
	ctx := context.WithValue(req.Context(), userIDKey, id)
	return req.WithContext(ctx)
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListUniversesReturnsOwnersSummaries(t *testing.T) {
	store := new(mockStore)
	store.On("ListByOwner", mock.Anything, "user-1").Return([]repository.UniverseSummary{{ID: "u1", Name: "Alpha"}}, nil)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/universe", nil), "user-1")
	w := httptest.NewRecorder()

	h.ListUniverses(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Alpha")
	store.AssertExpectations(t)
}

func TestCreateUniverseDefaultsDifficultyAndName(t *testing.T) {
	store := new(mockStore)
	store.On("Create", mock.Anything, mock.AnythingOfType("*universe.Universe")).Return(nil)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/universe", bytes.NewBufferString("{}")), "user-1")
	w := httptest.NewRecorder()

	h.CreateUniverse(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	created := body["universe"].(map[string]interface{})
	assert.Equal(t, "Untitled Universe", created["name"])
	assert.Equal(t, string(universe.DifficultyBeginner), created["difficulty"])
}

func TestCreateUniverseRejectsInvalidDifficulty(t *testing.T) {
	store := new(mockStore)
	h := newTestHandler(store)

	body, _ := json.Marshal(map[string]string{"difficulty": "Nightmare"})
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/universe", bytes.NewBuffer(body)), "user-1")
	w := httptest.NewRecorder()

	h.CreateUniverse(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetUniverseRejectsNonOwner(t *testing.T) {
	store := new(mockStore)
	u := universe.New("owner-a", "Alpha", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	store.On("Get", mock.Anything, u.ID).Return(u, nil)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/universe/"+u.ID, nil), "owner-b")
	req = withURLParam(req, "id", u.ID)
	w := httptest.NewRecorder()

	h.GetUniverse(w, req)

	assert.Equal(t, errors.ErrNotOwner.HTTPStatus(), w.Code)
}

func TestGetUniverseReturnsNotFound(t *testing.T) {
	store := new(mockStore)
	store.On("Get", mock.Anything, "missing").Return(nil, errors.ErrUniverseNotFound)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/universe/missing", nil), "owner-a")
	req = withURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.GetUniverse(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveAnomalyRequiresAnomalyID(t *testing.T) {
	store := new(mockStore)
	u := universe.New("owner-a", "Alpha", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	store.On("Get", mock.Anything, u.ID).Return(u, nil)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/universe/"+u.ID+"/resolve-anomaly", bytes.NewBufferString("{}")), "owner-a")
	req = withURLParam(req, "id", u.ID)
	w := httptest.NewRecorder()

	h.ResolveAnomaly(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulateUniverseRejectsEndedUniverse(t *testing.T) {
	store := new(mockStore)
	u := universe.New("owner-a", "Alpha", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	u.Status = universe.StatusEnded
	store.On("Get", mock.Anything, u.ID).Return(u, nil)

	h := newTestHandler(store)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/universe/"+u.ID+"/simulate", bytes.NewBufferString("{}")), "owner-a")
	req = withURLParam(req, "id", u.ID)
	w := httptest.NewRecorder()

	h.SimulateUniverse(w, req)

	assert.Equal(t, errors.ErrUniverseEnded.HTTPStatus(), w.Code)
	store.AssertNotCalled(t, "SaveWithRetry", mock.Anything, mock.Anything)
}
