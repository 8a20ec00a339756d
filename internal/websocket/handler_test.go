package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	ws "github.com/coder/websocket"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"

	"github.com/dukerupert/ladle/internal/auth"
	"github.com/dukerupert/ladle/internal/rtdb"
)

const testSecret = "gate-test-secret"

type stubMemberships struct {
	members map[string]bool
}

func (s *stubMemberships) IsMember(_ context.Context, groupID, uid string) (bool, error) {
	return s.members[groupID+"/"+uid], nil
}

func issueToken(t *testing.T, uid string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

type gateEnv struct {
	server *httptest.Server
	store  *rtdb.Store
	hub    *Hub
	redis  *redis.Client
}

func setupGate(t *testing.T) *gateEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := rtdb.New(client, slog.Default())

	groups := &stubMemberships{members: map[string]bool{"g1/alice": true}}
	hub := NewHub(slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/list/{id}", HandleList(hub, store, auth.NewVerifier(testSecret), groups, slog.Default()))
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return &gateEnv{server: server, store: store, hub: hub, redis: client}
}

func TestGateRejectsMissingToken(t *testing.T) {
	env := setupGate(t)

	resp, err := http.Get(env.server.URL + "/ws/list/l1?groupId=g1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestGateRejectsInvalidToken(t *testing.T) {
	env := setupGate(t)

	resp, err := http.Get(env.server.URL + "/ws/list/l1?groupId=g1&token=garbage")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestGateRejectsNonMember(t *testing.T) {
	env := setupGate(t)

	resp, err := http.Get(env.server.URL + "/ws/list/l1?groupId=g1&token=" + issueToken(t, "mallory"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestGateRejectsMissingGroup(t *testing.T) {
	env := setupGate(t)

	resp, err := http.Get(env.server.URL + "/ws/list/l1?token=" + issueToken(t, "alice"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestGateStreamsSnapshots(t *testing.T) {
	env := setupGate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seed := map[string]any{"weekStart": "2025-01-05T00:00:00.000Z", "items": []any{}}
	if err := env.store.Write(ctx, "lists/g1/l1", seed); err != nil {
		t.Fatalf("seed list: %v", err)
	}

	url := env.server.URL + "/ws/list/l1?groupId=g1&token=" + issueToken(t, "alice")
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	// Initial snapshot arrives immediately on connect.
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	var snap map[string]any
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap["weekStart"] != "2025-01-05T00:00:00.000Z" {
		t.Errorf("unexpected snapshot: %v", snap)
	}

	// A deep write triggers a fresh full snapshot.
	if err := env.store.Write(ctx, "lists/g1/l1/weekStart", "2025-01-12T00:00:00.000Z"); err != nil {
		t.Fatalf("update list: %v", err)
	}
	_, data, err = conn.Read(ctx)
	if err != nil {
		t.Fatalf("read updated snapshot: %v", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap["weekStart"] != "2025-01-12T00:00:00.000Z" {
		t.Errorf("snapshot not refreshed: %v", snap)
	}
}

func TestGateStopsWatchOnDisconnect(t *testing.T) {
	env := setupGate(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	seed := map[string]any{"weekStart": "2025-01-05T00:00:00.000Z", "items": []any{}}
	if err := env.store.Write(ctx, "lists/g1/l1", seed); err != nil {
		t.Fatalf("seed list: %v", err)
	}

	url := env.server.URL + "/ws/list/l1?groupId=g1&token=" + issueToken(t, "alice")
	conn, _, err := ws.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	// Receiving the initial snapshot means the watch is attached and the
	// viewer registered.
	if _, _, err := conn.Read(ctx); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if n := env.hub.ViewerCountForList("g1", "l1"); n != 1 {
		t.Fatalf("viewers = %d, want 1", n)
	}

	if err := conn.Close(ws.StatusNormalClosure, ""); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Teardown is asynchronous from the client's view; poll until the
	// viewer is gone and the store subscriptions are released.
	deadline := time.Now().Add(2 * time.Second)
	for {
		viewers := env.hub.ViewerCount()
		channels, err := env.redis.PubSubChannels(ctx, "*").Result()
		if err != nil {
			t.Fatalf("pubsub channels: %v", err)
		}
		if viewers == 0 && len(channels) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watch not torn down: viewers=%d channels=%v", viewers, channels)
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Later writes must not reach the closed connection's watch.
	if err := env.store.Write(ctx, "lists/g1/l1/weekStart", "2025-01-19T00:00:00.000Z"); err != nil {
		t.Fatalf("write after disconnect: %v", err)
	}
	channels, err := env.redis.PubSubChannels(ctx, "*").Result()
	if err != nil {
		t.Fatalf("pubsub channels: %v", err)
	}
	if len(channels) != 0 {
		t.Errorf("subscriptions remain after disconnect: %v", channels)
	}
}
