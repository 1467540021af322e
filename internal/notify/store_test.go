package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kickstart/client/internal/api"
	"github.com/kickstart/client/internal/connectivity"
	"github.com/kickstart/client/internal/models"
)

type staticCreds string

func (s staticCreds) Token() string    { return string(s) }
func (staticCreds) UpdateToken(string) {}
func (staticCreds) Clear()             {}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{
		BaseURL:     srv.URL,
		Credentials: staticCreds("tok1"),
		Checker:     connectivity.Static(true),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return NewStore(client, slog.New(slog.NewTextHandler(io.Discard, nil))), srv
}

func envelope(data any) []byte {
	raw, _ := json.Marshal(map[string]any{"status": 200, "data": data})
	return raw
}

func TestStoreApplyPrependsAndCounts(t *testing.T) {
	store, _ := newTestStore(t, http.NewServeMux())

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Apply(models.Notification{ID: fmt.Sprintf("n%d", i)})
		}(i)
	}
	wg.Wait()

	if got := store.UnreadCount(); got != n {
		t.Fatalf("unread counter drifted: got %d want %d", got, n)
	}
	if got := len(store.Notifications()); got != n {
		t.Fatalf("expected %d notifications, got %d", n, got)
	}

	// Sequential applies land newest first.
	store.Apply(models.Notification{ID: "latest"})
	if store.Notifications()[0].ID != "latest" {
		t.Fatal("streamed notification should be prepended")
	}
}

func TestStoreRefresh(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(models.NotificationPage{
			Notifications: []models.Notification{{ID: "n1"}, {ID: "n2", IsRead: true}},
			Total:         2,
			Page:          1,
		}))
	})
	mux.HandleFunc("/notifications/unread-count", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(1))
	})

	store, _ := newTestStore(t, mux)
	store.Apply(models.Notification{ID: "stale"})

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	list := store.Notifications()
	if len(list) != 2 || list[0].ID != "n1" {
		t.Fatalf("unexpected list after refresh: %+v", list)
	}
	if store.UnreadCount() != 1 {
		t.Fatalf("counter not synchronized: %d", store.UnreadCount())
	}
}

func TestStoreMarkRead(t *testing.T) {
	var patched string
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/n1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("unexpected method %s", r.Method)
		}
		patched = "n1"
		_, _ = w.Write(envelope(nil))
	})

	store, _ := newTestStore(t, mux)
	store.Apply(models.Notification{ID: "n1"})

	if err := store.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if patched != "n1" {
		t.Fatal("server was not told")
	}
	if store.UnreadCount() != 0 {
		t.Fatalf("counter should decrement, got %d", store.UnreadCount())
	}
	if !store.Notifications()[0].IsRead {
		t.Fatal("local record should flip to read")
	}

	// Marking the same one again must not drive the counter negative.
	if err := store.MarkRead(context.Background(), "n1"); err != nil {
		t.Fatalf("second mark read: %v", err)
	}
	if store.UnreadCount() != 0 {
		t.Fatalf("counter went negative: %d", store.UnreadCount())
	}
}

func TestStoreMarkAllRead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/mark-all-read", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(nil))
	})

	store, _ := newTestStore(t, mux)
	store.Apply(models.Notification{ID: "n1"})
	store.Apply(models.Notification{ID: "n2"})

	if err := store.MarkAllRead(context.Background()); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	if store.UnreadCount() != 0 {
		t.Fatalf("counter should zero, got %d", store.UnreadCount())
	}
	for _, n := range store.Notifications() {
		if !n.IsRead {
			t.Fatalf("notification %s still unread", n.ID)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notifications/n1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method %s", r.Method)
		}
		_, _ = w.Write(envelope(nil))
	})

	store, _ := newTestStore(t, mux)
	store.Apply(models.Notification{ID: "n1"})
	store.Apply(models.Notification{ID: "n2"})

	if err := store.Delete(context.Background(), "n1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list := store.Notifications()
	if len(list) != 1 || list[0].ID != "n2" {
		t.Fatalf("unexpected list after delete: %+v", list)
	}
	if store.UnreadCount() != 1 {
		t.Fatalf("deleting an unread entry should decrement, got %d", store.UnreadCount())
	}

	store.Reset()
	if store.UnreadCount() != 0 || len(store.Notifications()) != 0 {
		t.Fatal("reset should drop everything")
	}
}
