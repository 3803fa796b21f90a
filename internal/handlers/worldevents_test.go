package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestWorldEventHandler_Generate(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewWorldEventHandler(mgr, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Creeping Dread",
		Category:  motif.CategoryFear,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 7,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var got engine.GeneratedEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Event)
	assert.True(t, strings.HasPrefix(got.Event.EventID, "evt-"))
	assert.NotEmpty(t, got.EventType)
	assert.GreaterOrEqual(t, got.Intensity, 1)
	assert.LessOrEqual(t, got.Intensity, 10)
	require.NotEmpty(t, got.InfluencedBy)
	assert.Equal(t, "Creeping Dread", got.InfluencedBy[0].Name)

	logged, err := repo.WorldEvents(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, logged, 1)
}

func TestWorldEventHandler_GenerateExplicitType(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewWorldEventHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(`{"type": "festival"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var got engine.GeneratedEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "festival", got.EventType)
}

func TestWorldEventHandler_GenerateUnpairedCoords(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewWorldEventHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(`{"x": 10}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWorldEventHandler_List(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewWorldEventHandler(mgr, testLogger)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.AppendWorldEvent(context.Background(), motif.WorldEvent{
			EventID: fmt.Sprintf("evt-%08d", i),
			Summary: fmt.Sprintf("Event %d", i),
			Type:    "discovery",
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/events?limit=2&offset=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var events []motif.WorldEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	assert.Len(t, events, 2)
}

func TestWorldEventHandler_ListBadParams(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewWorldEventHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/events?limit=-3", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
