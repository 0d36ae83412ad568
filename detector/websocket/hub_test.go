package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"

	"smartcheckout/models"
)

func startHubServer(t *testing.T, hub *Hub) (*httptest.Server, string) {
	t.Helper()

	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade test connection: %v", err)
			return
		}
		client := NewClient(hub, conn)
		hub.Register <- client
		go client.WritePump()
		go client.ReadPump()
	}))

	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if clients, _ := hub.GetStats(); clients == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d connected clients", want)
}

func readMessage(t *testing.T, conn *gorilla.Conn) models.BroadcastMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.BroadcastMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Failed to read broadcast message: %v", err)
	}
	return msg
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv, url := startHubServer(t, hub)
	defer srv.Close()

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial hub: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	hub.BroadcastSnapshot([]models.DetectedProduct{
		{Name: "Soda", Quantity: 3, Price: 1.25},
	})

	msg := readMessage(t, conn)
	if msg.Type != models.MessageTypeDetectionUpdate {
		t.Errorf("Message type = %q, want %q", msg.Type, models.MessageTypeDetectionUpdate)
	}
	if len(msg.Data.Products) != 1 || msg.Data.Products[0].Name != "Soda" {
		t.Errorf("Products = %+v, want only Soda", msg.Data.Products)
	}
}

func TestHubBroadcastsEmptySnapshots(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv, url := startHubServer(t, hub)
	defer srv.Close()

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial hub: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, 1)

	// An empty product list must still reach subscribers so bills reset
	hub.BroadcastSnapshot(nil)

	msg := readMessage(t, conn)
	if msg.Type != models.MessageTypeDetectionUpdate {
		t.Errorf("Message type = %q, want %q", msg.Type, models.MessageTypeDetectionUpdate)
	}
	if len(msg.Data.Products) != 0 {
		t.Errorf("Products = %+v, want none", msg.Data.Products)
	}
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	srv, url := startHubServer(t, hub)
	defer srv.Close()

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to dial hub: %v", err)
	}

	waitForClients(t, hub, 1)
	conn.Close()
	waitForClients(t, hub, 0)
}
