package providers

import (
	"context"
	"encoding/json"
	"errors"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/verification"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestRoblox(baseURL string) *RobloxProvider {
	return NewRobloxProvider(&config.Config{
		RobloxUsersBaseURL:  baseURL,
		RobloxGroupsBaseURL: baseURL,
		ExternalTimeout:     2 * time.Second,
	}, nil)
}

func TestRobloxProvider_ResolveUsername_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST request, got %s", r.Method)
		}
		if r.URL.Path != "/v1/usernames/users" {
			t.Errorf("Expected path /v1/usernames/users, got %s", r.URL.Path)
		}

		var body usernamesRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if !body.ExcludeBannedUsers {
			t.Error("Expected excludeBannedUsers to be true")
		}
		if len(body.Usernames) != 1 || body.Usernames[0] != "Bob123" {
			t.Errorf("Unexpected usernames %v", body.Usernames)
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[{"requestedUsername":"Bob123","id":555,"name":"Bob123","displayName":"Bob"}]}`))
	}))
	defer server.Close()

	id, found, err := newTestRoblox(server.URL).ResolveUsername(context.Background(), "Bob123")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !found || id != 555 {
		t.Errorf("Expected (555, true), got (%d, %v)", id, found)
	}
}

func TestRobloxProvider_ResolveUsername_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	_, found, err := newTestRoblox(server.URL).ResolveUsername(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if found {
		t.Error("Expected not found")
	}
}

func TestRobloxProvider_FetchDescription(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/555" {
			t.Errorf("Expected path /v1/users/555, got %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":555,"name":"Bob123","description":"hi AB12CD34 there"}`))
	}))
	defer server.Close()

	desc, err := newTestRoblox(server.URL).FetchDescription(context.Background(), 555)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if desc != "hi AB12CD34 there" {
		t.Errorf("Unexpected description %q", desc)
	}
}

func TestRobloxProvider_FetchDescription_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[{"code":3,"message":"The user id is invalid."}]}`))
	}))
	defer server.Close()

	desc, err := newTestRoblox(server.URL).FetchDescription(context.Background(), 555)
	if desc != "" {
		t.Errorf("Expected empty description, got %q", desc)
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Code != constants.ErrCodeResourceNotFound {
		t.Errorf("Expected code %s, got %s", constants.ErrCodeResourceNotFound, pe.Code)
	}
}

func TestRobloxProvider_CompleteWithMissingProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/usernames/users":
			w.Write([]byte(`{"data":[{"requestedUsername":"Bob123","id":555,"name":"Bob123"}]}`))
		case "/v1/users/555":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors":[{"code":3,"message":"The user id is invalid."}]}`))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	reg := verification.NewRegistry(verification.NewMemoryStore(), newTestRoblox(server.URL),
		verification.WithCodeGenerator(func() string { return "AB12CD34" }))
	if _, err := reg.Start(ctx, "1", "9", "Bob123"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	_, err := reg.Complete(ctx, "9")
	if !errors.Is(err, verification.ErrExternalService) {
		t.Fatalf("Expected external service error, got %v", err)
	}
	if errors.Is(err, verification.ErrCodeNotFound) {
		t.Error("A failed description fetch must not read as a missing code")
	}
	if _, err := reg.GetPending(ctx, "9"); err != nil {
		t.Errorf("Expected pending record to survive, got %v", err)
	}
}

func TestRobloxProvider_FetchGroupRank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/users/555/groups/roles" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data":[
			{"group":{"id":1,"name":"Other"},"role":{"id":10,"name":"Member","rank":1}},
			{"group":{"id":11925205,"name":"CBA"},"role":{"id":20,"name":"Sergeant","rank":50}}
		]}`))
	}))
	defer server.Close()

	p := newTestRoblox(server.URL)

	rank, err := p.FetchGroupRank(context.Background(), 555, 11925205)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !rank.IsMember || rank.RankName != "Sergeant" || rank.Rank != 50 {
		t.Errorf("Unexpected rank %+v", rank)
	}

	rank, err = p.FetchGroupRank(context.Background(), 555, 42)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rank.IsMember {
		t.Error("Expected non-member for unknown group")
	}
}

func TestRobloxProvider_HTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantCode string
	}{
		{"rate limited", http.StatusTooManyRequests, constants.ErrCodeRateLimited},
		{"server error", http.StatusBadGateway, constants.ErrCodeNetworkError},
		{"bad request", http.StatusBadRequest, constants.ErrCodeInvalidDataFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"errors":[{"code":0,"message":"nope"}]}`))
			}))
			defer server.Close()

			_, _, err := newTestRoblox(server.URL).ResolveUsername(context.Background(), "Bob123")
			var pe *ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("Expected ProviderError, got %v", err)
			}
			if pe.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, pe.Code)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, pe.StatusCode)
			}
		})
	}
}

func TestRobloxProvider_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	p := NewRobloxProvider(&config.Config{
		RobloxUsersBaseURL: server.URL,
		ExternalTimeout:    20 * time.Millisecond,
	}, nil)

	_, _, err := p.ResolveUsername(context.Background(), "Bob123")
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if pe.Code != constants.ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT, got %s", pe.Code)
	}
}
