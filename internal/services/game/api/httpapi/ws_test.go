package httpapi

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"geobattle/internal/services/game/events"
)

func dialWatch(t *testing.T, f *apiFixture, gameID, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/games/" + gameID + "/watch"
	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial watch: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWatchStreamsActionEvents(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)
	f.seedGame(t)

	conn := dialWatch(t, f, "game-1", "player-token")

	f.do(t, http.MethodPost, "/v1/games/game-1/join", "player-token", "")
	resp := f.do(t, http.MethodPost, "/v1/games/game-1/actions", "player-token",
		`{"territory_id":"territory-1","action":"claim"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("claim status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	var event events.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != events.TypeTerritoryClaimed {
		t.Fatalf("event type = %q, want %q", event.Type, events.TypeTerritoryClaimed)
	}
	if event.TerritoryID != "territory-1" || event.ActorID != "player-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestWatchRejectsUnknownGame(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/v1/games/missing/watch"
	header := http.Header{"Authorization": []string{"Bearer player-token"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		conn.Close()
		t.Fatal("expected dial to fail for unknown game")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected %d handshake response, got %+v", http.StatusNotFound, resp)
	}
	resp.Body.Close()
}
