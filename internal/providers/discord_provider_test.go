package providers

import (
	"context"
	"infinite-experiment/garrison/internal/config"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestDiscord(baseURL string) *DiscordProvider {
	return NewDiscordProvider(&config.Config{
		DiscordAPIBaseURL: baseURL,
		DiscordBotToken:   "test-token",
		ExternalTimeout:   2 * time.Second,
	}, nil)
}

func TestDiscordProvider_SetNickname(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("Expected PATCH, got %s", r.Method)
		}
		if r.URL.Path != "/guilds/1/members/9" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bot test-token" {
			t.Errorf("Unexpected Authorization header %q", got)
		}
		if r.Header.Get("X-Audit-Log-Reason") == "" {
			t.Error("Expected audit log reason")
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"nick":"[SGT] Bob123"`) {
			t.Errorf("Unexpected body %s", body)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"user":{"id":"9"},"nick":"[SGT] Bob123","roles":[]}`))
	}))
	defer server.Close()

	err := newTestDiscord(server.URL).SetNickname(context.Background(), "1", "9", "[SGT] Bob123", "Rank update")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestDiscordProvider_ForbiddenIsTyped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Missing Permissions","code":50013}`))
	}))
	defer server.Close()

	err := newTestDiscord(server.URL).AddRole(context.Background(), "1", "9", "100", "")
	if !IsForbidden(err) {
		t.Fatalf("Expected forbidden error, got %v", err)
	}
}

func TestDiscordProvider_NoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("Expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestDiscord(server.URL).RemoveRole(context.Background(), "1", "9", "100", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
}

func TestDiscordProvider_GetGuild(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("with_counts") != "true" {
			t.Error("Expected with_counts=true")
		}
		w.Write([]byte(`{"id":"1","name":"CBA","owner_id":"42","approximate_member_count":1234}`))
	}))
	defer server.Close()

	guild, err := newTestDiscord(server.URL).GetGuild(context.Background(), "1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if guild.ApproximateMemberCount != 1234 || guild.OwnerID != "42" {
		t.Errorf("Unexpected guild %+v", guild)
	}
}
