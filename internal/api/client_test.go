package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kickstart/client/internal/connectivity"
)

type fakeCreds struct {
	mu      sync.Mutex
	token   string
	cleared bool
}

func (f *fakeCreds) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCreds) UpdateToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeCreds) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared = true
}

func (f *fakeCreds) wasCleared() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string, creds CredentialProvider) *Client {
	t.Helper()
	client, err := New(Options{
		BaseURL:     baseURL,
		Credentials: creds,
		Checker:     connectivity.Static(true),
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func writeEnvelope(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"data":   data,
	})
}

func TestClientRefreshAndReplay(t *testing.T) {
	var profileHits, refreshHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"id": "user-1", "email": "a@b.co"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"token": "tok2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{token: "tok1"}
	client := newTestClient(t, srv.URL, creds)

	user, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if got := profileHits.Load(); got != 2 {
		t.Fatalf("expected one replay, profile hit %d times", got)
	}
	if got := refreshHits.Load(); got != 1 {
		t.Fatalf("expected one refresh, got %d", got)
	}
	if creds.Token() != "tok2" {
		t.Fatalf("credential not swapped: %q", creds.Token())
	}
}

func TestClientRetriesAtMostOnce(t *testing.T) {
	var profileHits atomic.Int32
	refreshCount := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		profileHits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCount++
		writeEnvelope(w, http.StatusOK, map[string]string{"token": "tok2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{token: "tok1"})

	_, err := client.Profile(context.Background())
	if err == nil {
		t.Fatal("expected error when replay is rejected")
	}
	if got := profileHits.Load(); got != 2 {
		t.Fatalf("expected exactly one replay, profile hit %d times", got)
	}
	if refreshCount != 1 {
		t.Fatalf("expected a single refresh attempt, got %d", refreshCount)
	}
}

func TestClientRefreshFailureClearsCredential(t *testing.T) {
	var sawHeader string
	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		sawHeader = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{token: "tok1"}
	client := newTestClient(t, srv.URL, creds)

	_, err := client.Profile(context.Background())
	if !RequiresLogin(err) {
		t.Fatalf("expected RequiresLogin, got %v", err)
	}
	if !creds.wasCleared() {
		t.Fatal("credential should be cleared after refresh failure")
	}

	// The next call goes out unauthenticated.
	_, _ = client.Profile(context.Background())
	if sawHeader != "" {
		t.Fatalf("expected no bearer header after clear, got %q", sawHeader)
	}
	if err.Error() != msgSessionExpired {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClientCoalescesConcurrentRefreshes(t *testing.T) {
	var refreshHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"id": "user-1"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		writeEnvelope(w, http.StatusOK, map[string]string{"token": "tok2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{token: "tok1"})

	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Profile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := refreshHits.Load(); got != 1 {
		t.Fatalf("expected a single refresh, got %d", got)
	}
}

func TestClientCoalescesConcurrentRefreshFailures(t *testing.T) {
	var refreshHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{token: "tok1"}
	client := newTestClient(t, srv.URL, creds)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Profile(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !RequiresLogin(err) {
			t.Fatalf("call %d: expected RequiresLogin, got %v", i, err)
		}
	}
	if got := refreshHits.Load(); got != 1 {
		t.Fatalf("expected a single refresh call for concurrent 401s, got %d", got)
	}
	if !creds.wasCleared() {
		t.Fatal("credential should be cleared after the lost refresh")
	}
}

func TestClientRefreshRecoversAfterNewLogin(t *testing.T) {
	var refreshHits atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok3" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"id": "user-1"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshHits.Add(1)
		if r.Header.Get("Authorization") == "Bearer tok2" {
			writeEnvelope(w, http.StatusOK, map[string]string{"token": "tok3"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := &fakeCreds{token: "tok1"}
	client := newTestClient(t, srv.URL, creds)

	if _, err := client.Profile(context.Background()); !RequiresLogin(err) {
		t.Fatalf("expected RequiresLogin for the lost refresh, got %v", err)
	}

	// A fresh login must not be blocked by the recorded failure.
	creds.UpdateToken("tok2")
	user, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("profile after re-login: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if got := refreshHits.Load(); got != 2 {
		t.Fatalf("expected one refresh per credential generation, got %d", got)
	}
}

// flipChecker reports online for the pre-request gate, then offline for
// every later re-check.
type flipChecker struct {
	calls atomic.Int32
}

func (f *flipChecker) Online(context.Context) bool {
	return f.calls.Add(1) == 1
}

func TestClientTransportFailureRechecksConnectivity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := srv.URL
	srv.Close()

	creds := &fakeCreds{token: "tok1"}
	client, err := New(Options{
		BaseURL:     deadURL,
		Credentials: creds,
		Checker:     &flipChecker{},
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Profile(context.Background())
	if !IsNetworkUnavailable(err) {
		t.Fatalf("expected network-unavailable after transport failure, got %v", err)
	}
	// Network loss is not an auth failure: no refresh may run, so the
	// credential stays intact.
	if creds.wasCleared() {
		t.Fatal("transport failure must not clear the credential")
	}
	if creds.Token() != "tok1" {
		t.Fatalf("credential changed: %q", creds.Token())
	}
}

func TestClientNetworkUnavailable(t *testing.T) {
	client, err := New(Options{
		BaseURL:     "http://unreachable.invalid",
		Credentials: &fakeCreds{},
		Checker:     connectivity.Static(false),
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	_, err = client.Profile(context.Background())
	if !IsNetworkUnavailable(err) {
		t.Fatalf("expected network-unavailable error, got %v", err)
	}
	if err.Error() != msgNetworkUnavailable {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestClientErrorMessageFromResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":409,"message":"Email already registered"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{token: "tok1"})

	err := client.Signup(context.Background(), "a@b.co", "Password1!")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != "Email already registered" {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
	if apiErr.Status != http.StatusConflict {
		t.Fatalf("unexpected status: %d", apiErr.Status)
	}
}

func TestClientErrorFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{token: "tok1"})

	_, err := client.Profile(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.Message != msgGeneric {
		t.Fatalf("unexpected message: %q", apiErr.Message)
	}
}

func TestClientUploadMediaReplaysIdenticalBody(t *testing.T) {
	var bodies []string
	var mu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/media/upload", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(raw))
		first := len(bodies) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]string{"url": "https://cdn.kickstart.app/x.png", "filename": "x.png"})
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]string{"token": "tok2"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{token: "tok1"})

	upload, err := client.UploadMedia(context.Background(), "x.png", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if upload.URL == "" {
		t.Fatalf("expected upload URL, got %+v", upload)
	}
	if len(bodies) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(bodies))
	}
	if bodies[0] != bodies[1] {
		t.Fatal("replayed multipart body differs from the original")
	}
	if !strings.Contains(bodies[0], "png-bytes") {
		t.Fatal("multipart body missing file content")
	}
}

func TestClientLoginDecodesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload.Email != "a@b.co" {
			t.Errorf("unexpected email %q", payload.Email)
		}
		writeEnvelope(w, http.StatusOK, map[string]any{
			"token": "tok1",
			"user":  map[string]string{"id": "user-1", "email": "a@b.co"},
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, &fakeCreds{})

	session, err := client.Login(context.Background(), "a@b.co", "Password1!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.Token != "tok1" || session.User.ID != "user-1" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.IssuedAt.IsZero() {
		t.Fatal("expected issuedAt to be stamped")
	}
}
