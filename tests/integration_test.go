//go:build integration

package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

////////////////////////////////////////////////////////////////////////////////
// INTEGRATION TEST SUITE
//
// These tests validate the service end-to-end:
//
//   Client → HTTP API → Record store → Event bus → Response
//
// The service and its backends must already be running (for example via
// docker compose). Run with: go test -tags integration ./tests/...
//
// Optional environment overrides:
//
//   BASE_URL    default http://localhost:8080
//
////////////////////////////////////////////////////////////////////////////////

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

////////////////////////////////////////////////////////////////////////////////
// SERVICE READINESS HELPER
//
// waitReady polls /ready until store + bus are reachable.
////////////////////////////////////////////////////////////////////////////////

func waitReady(t *testing.T) {
	t.Helper()

	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(30 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL() + "/ready")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(300 * time.Millisecond)
	}

	t.Fatalf("service not ready after 30s")
}

////////////////////////////////////////////////////////////////////////////////
// GENERIC HTTP HELPERS
////////////////////////////////////////////////////////////////////////////////

type result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// postDoorbell sends a raw body to POST /doorbell.
func postDoorbell(t *testing.T, body string) (int, result) {
	t.Helper()

	req, _ := http.NewRequest("POST", baseURL()+"/doorbell", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("POST /doorbell failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json got %q", ct)
	}

	out, _ := io.ReadAll(resp.Body)
	var r result
	if err := json.Unmarshal(out, &r); err != nil {
		t.Fatalf("invalid response JSON %q: %v", out, err)
	}
	return resp.StatusCode, r
}

////////////////////////////////////////////////////////////////////////////////
// HEALTH & READINESS TESTS
////////////////////////////////////////////////////////////////////////////////

func TestHealth_ReturnsOK(t *testing.T) {
	resp, err := (&http.Client{Timeout: 2 * time.Second}).Get(baseURL() + "/health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health expected 200 got %d", resp.StatusCode)
	}
}

////////////////////////////////////////////////////////////////////////////////
// DOORBELL CONTRACT TESTS
////////////////////////////////////////////////////////////////////////////////

func TestDoorbell_ValidHouse(t *testing.T) {
	waitReady(t)

	s, r := postDoorbell(t, `{"houseId":"H2"}`)
	if s != http.StatusOK || r.Status != "success" {
		t.Fatalf("expected 200 success got %d %+v", s, r)
	}
	if !strings.Contains(r.Message, "H2") {
		t.Fatalf("message should mention house: %q", r.Message)
	}
}

func TestDoorbell_InvalidJSON(t *testing.T) {
	waitReady(t)

	s, r := postDoorbell(t, `{"houseId":`)
	if s != http.StatusBadRequest || r.Message != "Invalid JSON format" {
		t.Fatalf("expected 400 Invalid JSON format got %d %+v", s, r)
	}
}

func TestDoorbell_InvalidHouse(t *testing.T) {
	waitReady(t)

	s, r := postDoorbell(t, `{"houseId":"H7"}`)
	if s != http.StatusBadRequest || r.Message != "Invalid houseId: H7" {
		t.Fatalf("expected 400 Invalid houseId got %d %+v", s, r)
	}
}

func TestDoorbell_MissingHouseDefaults(t *testing.T) {
	waitReady(t)

	s, r := postDoorbell(t, `{}`)
	if s != http.StatusBadRequest || r.Message != "Invalid houseId: Unknown House" {
		t.Fatalf("expected 400 Unknown House got %d %+v", s, r)
	}
}
