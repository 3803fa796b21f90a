//go:build integration
// +build integration

// End-to-end checks against a running API. Point API_BASE_URL at the
// server (default http://localhost:8080) and run with the integration
// build tag. The suite drives a motif through its whole lifecycle and
// touches every major endpoint group.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseURL = "http://localhost:8080"

func TestMain(m *testing.M) {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		baseURL = v
	}
	fmt.Printf("Running integration tests against %s\n", baseURL)
	os.Exit(m.Run())
}

var client = &http.Client{Timeout: 30 * time.Second}

func doJSON(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, baseURL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw bytes.Buffer
	_, _ = raw.ReadFrom(resp.Body)
	require.Equal(t, wantStatus, resp.StatusCode, "%s %s: %s", method, path, raw.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(raw.Bytes(), out), raw.String())
	}
}

func TestHealth(t *testing.T) {
	resp, err := client.Get(baseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMotifLifecycleFlow(t *testing.T) {
	create := map[string]any{
		"name":      "Integration Dread",
		"category":  "fear",
		"scope":     "global",
		"intensity": 6,
	}
	var created struct {
		ID        string `json:"id"`
		Lifecycle string `json:"lifecycle"`
	}
	doJSON(t, http.MethodPost, "/v1/motifs", create, http.StatusCreated, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "emerging", created.Lifecycle)

	defer doJSON(t, http.MethodDelete, "/v1/motifs/"+created.ID, nil, http.StatusNoContent, nil)

	// Forced advancement walks one lifecycle step regardless of age.
	var advanced struct {
		Lifecycle string `json:"lifecycle"`
	}
	doJSON(t, http.MethodPost, "/v1/motifs/"+created.ID+"/advance", map[string]any{"forced": true}, http.StatusOK, &advanced)
	assert.Equal(t, "stable", advanced.Lifecycle)

	var listed []json.RawMessage
	doJSON(t, http.MethodGet, "/v1/motifs?scope=global&min_intensity=5", nil, http.StatusOK, &listed)
	assert.NotEmpty(t, listed)
}

func TestContextAndNarration(t *testing.T) {
	var nc struct {
		LocationType string `json:"location_type"`
	}
	doJSON(t, http.MethodGet, "/v1/context", nil, http.StatusOK, &nc)
	assert.Equal(t, "world", nc.LocationType)

	var enhanced struct {
		PromptText string `json:"prompt_text"`
	}
	doJSON(t, http.MethodGet, "/v1/context/enhanced?size=small", nil, http.StatusOK, &enhanced)

	var narration map[string]string
	doJSON(t, http.MethodPost, "/v1/narrate", nil, http.StatusOK, &narration)
	assert.NotEmpty(t, narration["narration"])
}

func TestSequenceFlow(t *testing.T) {
	var seq struct {
		Sequence struct {
			ID       string   `json:"id"`
			MotifIDs []string `json:"motif_ids"`
		} `json:"sequence"`
		Motifs []struct {
			ID        string `json:"id"`
			Lifecycle string `json:"lifecycle"`
		} `json:"motifs"`
	}
	doJSON(t, http.MethodPost, "/v1/sequences", map[string]any{"length": 3, "theme": "betrayal"}, http.StatusCreated, &seq)
	require.Len(t, seq.Motifs, 3)
	assert.Equal(t, "emerging", seq.Motifs[0].Lifecycle)

	doJSON(t, http.MethodPost, "/v1/sequences/"+seq.Sequence.ID+"/advance", nil, http.StatusOK, nil)
}

func TestChaosAndEvents(t *testing.T) {
	var roll struct {
		EventType string `json:"event_type"`
	}
	doJSON(t, http.MethodPost, "/v1/chaos/roll", nil, http.StatusOK, &roll)
	assert.NotEmpty(t, roll.EventType)

	var injected struct {
		EventID string `json:"event_id"`
	}
	doJSON(t, http.MethodPost, "/v1/chaos/inject", map[string]any{"event_type": "the river runs backward"}, http.StatusCreated, &injected)
	assert.NotEmpty(t, injected.EventID)

	var evt struct {
		Event struct {
			EventID string `json:"event_id"`
		} `json:"event"`
	}
	doJSON(t, http.MethodPost, "/v1/events", map[string]any{}, http.StatusCreated, &evt)
	assert.NotEmpty(t, evt.Event.EventID)

	var events []json.RawMessage
	doJSON(t, http.MethodGet, "/v1/events?limit=5", nil, http.StatusOK, &events)
	assert.NotEmpty(t, events)
}

func TestRegionsAndTick(t *testing.T) {
	doJSON(t, http.MethodPost, "/v1/regions", map[string]any{"region_id": "integration-vale"}, http.StatusCreated, nil)

	var regions []string
	doJSON(t, http.MethodGet, "/v1/regions", nil, http.StatusOK, &regions)
	assert.Contains(t, regions, "integration-vale")

	var tick struct {
		Checked int `json:"checked"`
	}
	doJSON(t, http.MethodPost, "/v1/lifecycle/tick", nil, http.StatusOK, &tick)
	assert.GreaterOrEqual(t, tick.Checked, 0)
}
