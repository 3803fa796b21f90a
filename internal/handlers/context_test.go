package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/motif-engine/internal/engine"
	"github.com/lorekeep/motif-engine/internal/services"
	"github.com/lorekeep/motif-engine/pkg/motif"
	"github.com/lorekeep/motif-engine/pkg/textfilter"
)

func TestContextHandler_NarrativeContext(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Knives in the Dark",
		Category:  motif.CategoryBetrayal,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 8,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/context", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var nc engine.NarrativeContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &nc))
	assert.Equal(t, "Knives in the Dark", nc.DominantMotif)
	assert.Equal(t, 1, nc.MotifCount)
	assert.Equal(t, "world", nc.LocationType)
	require.NotNil(t, nc.WorldTone)
	assert.Equal(t, string(motif.CategoryBetrayal), nc.WorldTone.PrimaryInfluence)
}

func TestContextHandler_NarrativeContextBadCoords(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/context?x=abc&y=1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContextHandler_Enhanced(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Knives in the Dark",
		Category:  motif.CategoryBetrayal,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 6,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/context/enhanced?size=small", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ec engine.EnhancedContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ec))
	assert.True(t, ec.HasMotifs)
	assert.Equal(t, "small", ec.ContextSize)
	assert.Equal(t, "Theme: betrayal (intensity: 6.0)", ec.PromptText)
}

func TestContextHandler_EnhancedBadSize(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/context/enhanced?size=gigantic", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContextHandler_GPT(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Watching Shadows",
		Category:  motif.CategoryParanoia,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 7,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/context/gpt?size=medium", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var gc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gc))
	assert.Contains(t, gc, "world_state")
}

func TestContextHandler_BlendEmptyWorld(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/context/blend", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var blend motif.Blend
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &blend))
	assert.Nil(t, blend.DominantMotif)
	assert.Empty(t, blend.ContributingNames)
	assert.Zero(t, blend.MotifCount)
}

func TestContextHandler_Blend(t *testing.T) {
	mgr, repo := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Ember of Hope",
		Category:  motif.CategoryHope,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 8,
	})
	seedMotif(t, repo, &motif.Motif{
		Name:      "Old Debts",
		Category:  motif.CategoryVengeance,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 3,
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/context/blend", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var blend motif.Blend
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &blend))
	require.NotNil(t, blend.DominantMotif)
	assert.Equal(t, "Ember of Hope", blend.DominantMotif.Name)
	assert.Equal(t, []string{"Old Debts"}, blend.ContributingNames)
	assert.Equal(t, 2, blend.MotifCount)
}

func TestContextHandler_Narrate(t *testing.T) {
	mgr, repo := testDeps(t)
	llm := services.NewMockLLM()
	llm.GetChatResponseFunc = func(ctx context.Context, messages []services.ChatMessage) (*services.ChatResponse, error) {
		return &services.ChatResponse{Message: "A chill settles over the market square."}, nil
	}
	h := NewContextHandler(mgr, llm, nil, testLogger)

	seedMotif(t, repo, &motif.Motif{
		Name:      "Creeping Dread",
		Category:  motif.CategoryFear,
		Scope:     motif.ScopeGlobal,
		Lifecycle: motif.LifecycleStable,
		Intensity: 6,
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/narrate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "A chill settles over the market square.", resp["narration"])
	assert.Len(t, llm.GetChatResponseCalls, 1)
}

func TestContextHandler_NarrateFiltersRatedContent(t *testing.T) {
	mgr, _ := testDeps(t)
	llm := services.NewMockLLM()
	llm.GetChatResponseFunc = func(ctx context.Context, messages []services.ChatMessage) (*services.ChatResponse, error) {
		return &services.ChatResponse{Message: "The whole damn village is on edge."}, nil
	}
	h := NewContextHandler(mgr, llm, textfilter.New(), testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/narrate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "The whole dang village is on edge.", resp["narration"])
}

func TestContextHandler_NarrateFallsBack(t *testing.T) {
	mgr, _ := testDeps(t)
	llm := services.NewMockLLM()
	llm.GetChatResponseFunc = func(ctx context.Context, messages []services.ChatMessage) (*services.ChatResponse, error) {
		return nil, errors.New("model offline")
	}
	h := NewContextHandler(mgr, llm, nil, testLogger)

	req := httptest.NewRequest(http.MethodPost, "/v1/narrate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["narration"])
}

func TestContextHandler_NarrateGetRejected(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/narrate", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestContextHandler_UnknownPath(t *testing.T) {
	mgr, _ := testDeps(t)
	h := NewContextHandler(mgr, services.NewMockLLM(), nil, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/v1/context/everything", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
