package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/lorekeep/motif-engine/pkg/motif"
)

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	// Degraded still answers; only connection failures matter here.
	return resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusServiceUnavailable
}

func decodeResponse(resp *http.Response, wantStatus int, out any) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func listRegions(client *http.Client, baseURL string) ([]string, error) {
	resp, err := client.Get(baseURL + "/v1/regions")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var regions []string
	if err := decodeResponse(resp, http.StatusOK, &regions); err != nil {
		return nil, err
	}
	return regions, nil
}

func requestNarration(client *http.Client, baseURL, region string) (string, error) {
	path := baseURL + "/v1/narrate"
	if region != "" {
		path += "?region=" + url.QueryEscape(region)
	}

	resp, err := client.Post(path, "application/json", nil)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var out struct {
		Narration string `json:"narration"`
	}
	if err := decodeResponse(resp, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.Narration, nil
}

func fetchEnhancedContext(client *http.Client, baseURL, region, size string) (string, error) {
	path := baseURL + "/v1/context/enhanced?size=" + url.QueryEscape(size)
	if region != "" {
		path += "&region=" + url.QueryEscape(region)
	}

	resp, err := client.Get(path)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var out struct {
		PromptText string `json:"prompt_text"`
	}
	if err := decodeResponse(resp, http.StatusOK, &out); err != nil {
		return "", err
	}
	return out.PromptText, nil
}

func listDominantMotifs(client *http.Client, baseURL string) ([]*motif.Motif, error) {
	resp, err := client.Get(baseURL + "/v1/locations/dominant?limit=5")
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var motifs []*motif.Motif
	if err := decodeResponse(resp, http.StatusOK, &motifs); err != nil {
		return nil, err
	}
	return motifs, nil
}

func listRecentEvents(client *http.Client, baseURL string, limit int) ([]motif.WorldEvent, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/events?limit=%d", baseURL, limit))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var events []motif.WorldEvent
	if err := decodeResponse(resp, http.StatusOK, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func generateWorldEvent(client *http.Client, baseURL, region string) (*motif.WorldEvent, error) {
	body := map[string]any{}
	if region != "" {
		body["region_id"] = region
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/events", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var out struct {
		Event *motif.WorldEvent `json:"event"`
	}
	if err := decodeResponse(resp, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return out.Event, nil
}

func injectChaos(client *http.Client, baseURL, region string) (*motif.WorldEvent, error) {
	body := map[string]any{}
	if region != "" {
		body["region_id"] = region
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/chaos/inject", "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var ev motif.WorldEvent
	if err := decodeResponse(resp, http.StatusCreated, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func runLifecycleTick(client *http.Client, baseURL string) (checked, transitions int, err error) {
	resp, err := client.Post(baseURL+"/v1/lifecycle/tick", "application/json", nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	var out struct {
		Checked     int `json:"checked"`
		Transitions int `json:"transitions"`
	}
	if err := decodeResponse(resp, http.StatusOK, &out); err != nil {
		return 0, 0, err
	}
	return out.Checked, out.Transitions, nil
}
