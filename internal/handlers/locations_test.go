package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestLocationHandler_Motifs(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewLocationHandler(mgr, testLogger)

	near := seedMotif(t, repo, &motif.Motif{
		Name:      "Creeping Dread",
		Category:  motif.CategoryFear,
		Scope:     motif.ScopeLocal,
		Location:  &motif.Location{X: 0, Y: 0},
		Lifecycle: motif.LifecycleStable,
		Intensity: 6,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/motifs?x=3&y=4", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var spreads []*motif.Spread
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spreads))
	require.Len(t, spreads, 1)
	assert.Equal(t, near.ID, spreads[0].MotifID)
	assert.Equal(t, 5.0, spreads[0].Distance)
	assert.Less(t, spreads[0].EffectiveIntensity, spreads[0].OriginalIntensity)
}

func TestLocationHandler_MotifsMissingCoords(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewLocationHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/motifs?x=3", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocationHandler_Dominant(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewLocationHandler(mgr, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Weak Whisper",
		Category:  motif.CategoryMystery,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 2,
	})
	seedMotif(t, repo, &motif.Motif{
		Name:      "Iron Resolve",
		Category:  motif.CategoryUnity,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 9,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/dominant?limit=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var motifs []*motif.Motif
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &motifs))
	require.Len(t, motifs, 1)
	assert.Equal(t, "Iron Resolve", motifs[0].Name)
}

func TestLocationHandler_DominantBadLimit(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewLocationHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/locations/dominant?limit=zero", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLocationHandler_MethodNotAllowed(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewLocationHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/locations/motifs?x=1&y=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
