package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/pkg/motif"
)

func TestRegionHandler_Register(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/regions", strings.NewReader(`{"region_id": "north"}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	regions, err := repo.ListRegions(context.Background())
	require.NoError(t, err)
	assert.Contains(t, regions, "north")

	// Registration reconciles the regional floor immediately.
	motifs, err := repo.ListMotifs(context.Background())
	require.NoError(t, err)
	regional := 0
	for _, m := range motifs {
		if m.Scope == motif.ScopeRegional && m.RegionID() == "north" {
			regional++
		}
	}
	assert.GreaterOrEqual(t, regional, 2)
}

func TestRegionHandler_RegisterMissingID(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/regions", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegionHandler_List(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	require.NoError(t, repo.RegisterRegion(context.Background(), "east"))

	req := httptest.NewRequest(http.MethodGet, "/v1/regions", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var regions []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &regions))
	assert.Equal(t, []string{"east"}, regions)
}

func TestRegionHandler_Summary(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Border Raids",
		Category:  motif.CategoryWar,
		Scope:     motif.ScopeRegional,
		Location:  &motif.Location{RegionID: "west"},
		Lifecycle: motif.LifecycleStable,
		Intensity: 6,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/regions/west/summary", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var summary engine.RegionSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "west", summary.RegionID)
	assert.Equal(t, 1, summary.ActiveMotifs)
	assert.Equal(t, motif.CategoryWar, summary.DominantCategory)
}

func TestRegionHandler_Tick(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Waning Light",
		Category:  motif.CategoryHope,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 4,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/lifecycle/tick", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res engine.TickResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Checked)
}

func TestRegionHandler_TickGetRejected(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewRegionHandler(mgr, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/lifecycle/tick", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
