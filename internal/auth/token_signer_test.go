package auth

import (
	"testing"
	"time"
)

func TestTokenSigner_RoundTrip(t *testing.T) {
	signer := NewTokenSigner([]byte("secret"))

	token, err := signer.Sign("42", "1", true, time.Minute)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if claims.DiscordUserID() != "42" || claims.DiscordServerID() != "1" || !claims.Elevated() {
		t.Errorf("Unexpected claims %+v", claims)
	}
	if claims.TokenID == "" {
		t.Error("Expected a token id")
	}
}

func TestTokenSigner_Rejects(t *testing.T) {
	signer := NewTokenSigner([]byte("secret"))

	expired, _ := signer.Sign("42", "1", false, -time.Minute)
	if _, err := signer.Parse(expired); err == nil {
		t.Error("Expected expired token to be rejected")
	}

	other, _ := NewTokenSigner([]byte("other")).Sign("42", "1", false, time.Minute)
	if _, err := signer.Parse(other); err == nil {
		t.Error("Expected token signed with another key to be rejected")
	}

	if _, err := NewTokenSigner(nil).Parse(other); err == nil {
		t.Error("Expected disabled signer to reject everything")
	}
}
