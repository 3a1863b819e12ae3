package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/faturabot/faturabot/internal/faturabot/gateway"
)

func TestRefresh_InstallsTokenInCell(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"token": "jwt-abc"})
	}))
	t.Cleanup(srv.Close)

	cell := &gateway.TokenCell{}
	auth := gateway.NewAuthenticator(gateway.AuthConfig{
		URL: srv.URL, Username: "test", Password: "test123",
	}, cell)

	token, err := auth.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if token != "jwt-abc" || cell.Current() != "jwt-abc" {
		t.Errorf("token = %q, cell = %q", token, cell.Current())
	}
	if gotBody["username"] != "test" || gotBody["password"] != "test123" {
		t.Errorf("credentials sent = %v", gotBody)
	}
}

func TestRefresh_RejectionLeavesPreviousToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	cell := &gateway.TokenCell{}
	cell.Set("previous")
	auth := gateway.NewAuthenticator(gateway.AuthConfig{URL: srv.URL}, cell)

	if _, err := auth.Refresh(context.Background()); err == nil {
		t.Fatal("expected an error from a rejected login")
	}
	if cell.Current() != "previous" {
		t.Errorf("failed refresh must not touch the cell, got %q", cell.Current())
	}
	// A definitive rejection is not a transient failure; no backoff retry.
	if calls != 1 {
		t.Errorf("auth service called %d times, want 1", calls)
	}
}

func TestRefresh_EmptyTokenIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": ""})
	}))
	t.Cleanup(srv.Close)

	cell := &gateway.TokenCell{}
	auth := gateway.NewAuthenticator(gateway.AuthConfig{URL: srv.URL}, cell)
	if _, err := auth.Refresh(context.Background()); err == nil {
		t.Fatal("expected an error when the response carries no token")
	}
}

func TestRefresh_SelfSignedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "jwt-tls"})
	}))
	t.Cleanup(srv.Close)

	cell := &gateway.TokenCell{}
	auth := gateway.NewAuthenticator(gateway.AuthConfig{URL: srv.URL, InsecureTLS: true}, cell)
	if _, err := auth.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh against self-signed TLS: %v", err)
	}
	if cell.Current() != "jwt-tls" {
		t.Errorf("cell = %q", cell.Current())
	}
}

func TestTokenCell_LastWriteWins(t *testing.T) {
	cell := &gateway.TokenCell{}
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			cell.Set("a")
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		cell.Set("b")
		_ = cell.Current()
	}
	<-done

	if got := cell.Current(); got != "a" && got != "b" {
		t.Errorf("cell holds a torn value: %q", got)
	}
}
