package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHubServer(t *testing.T, hub *Hub, channels ...Recipient) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, channels...)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.SessionCount(channels[0]) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session was not registered in time")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return client
}

func TestHubDeliversOnlyToAddressedChannels(t *testing.T) {
	hub := NewHub(time.Second, time.Minute)
	client := startHubServer(t, hub, CarrierRecipient(7))

	if err := hub.Deliver(context.Background(), New("load_updated", "load", 1, "awarded", nil, CarrierRecipient(8))); err != nil {
		t.Fatalf("deliver to other carrier failed: %v", err)
	}
	if err := hub.Deliver(context.Background(), New("otp_approved", "otp_request", 3, "approved", nil, CarrierRecipient(7))); err != nil {
		t.Fatalf("deliver failed: %v", err)
	}

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read message failed: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode event failed: %v", err)
	}
	if got.Name != "otp_approved" || got.EntityID != 3 {
		t.Fatalf("first received event should be otp_approved#3, got %s#%d", got.Name, got.EntityID)
	}
}

func TestHubUnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(time.Second, time.Minute)
	client := startHubServer(t, hub, AllAdmins, AdminRecipient(1))
	if hub.SessionCount(AdminRecipient(1)) != 1 {
		t.Fatalf("admin channel should have one session")
	}
	_ = client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = client.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.SessionCount(AllAdmins) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("session should be removed after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubCloseAllDropsSessions(t *testing.T) {
	hub := NewHub(time.Second, time.Minute)
	client := startHubServer(t, hub, AllCarriers, CarrierRecipient(3))

	hub.CloseAll()
	if hub.SessionCount(AllCarriers) != 0 || hub.SessionCount(CarrierRecipient(3)) != 0 {
		t.Fatalf("channels should be empty after close")
	}
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := client.ReadMessage(); err == nil {
		t.Fatalf("client read should fail after hub closed the connection")
	}
}
