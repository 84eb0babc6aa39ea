package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}
	var resp APIResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return resp
}

func TestRespondSuccess(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondSuccess(rr, time.Now(), "Session started", map[string]int{"pad": 3}, http.StatusCreated)

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	resp := decodeEnvelope(t, rr)
	if resp.Status != "ok" || resp.Message != "Session started" {
		t.Errorf("Unexpected envelope %+v", resp)
	}
	if resp.ResponseTime == "" {
		t.Error("Expected response_time to be set")
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok || data["pad"] != float64(3) {
		t.Errorf("Unexpected data %#v", resp.Data)
	}
}

func TestRespondError(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, time.Now(), errors.New("boom"), "fallback", http.StatusBadRequest)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rr.Code)
	}
	resp := decodeEnvelope(t, rr)
	if resp.Status != "error" || resp.Message != "boom" {
		t.Errorf("Unexpected envelope %+v", resp)
	}
	if resp.Data != nil {
		t.Errorf("Expected no data, got %#v", resp.Data)
	}
}

func TestRespondErrorData(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondErrorData(rr, time.Now(), "Pad unavailable", map[string]string{"reason": "pad_occupied"}, http.StatusConflict)

	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", rr.Code)
	}
	resp := decodeEnvelope(t, rr)
	data, ok := resp.Data.(map[string]interface{})
	if resp.Status != "error" || !ok || data["reason"] != "pad_occupied" {
		t.Errorf("Unexpected envelope %+v", resp)
	}
}
