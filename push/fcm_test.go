package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSuccess(t *testing.T) {
	var received fcmMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "key=server-key" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode message: %v", err)
		}
		json.NewEncoder(w).Encode(fcmResponse{Success: 1})
	}))
	defer server.Close()

	client := NewClient(server.URL, "server-key")
	err := client.Send(context.Background(), "device-token", "Title", "Body",
		map[string]string{"type": "trending_alert"})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if received.To != "device-token" {
		t.Errorf("to = %q, want device-token", received.To)
	}
	if received.Notification.Title != "Title" || received.Notification.Body != "Body" {
		t.Errorf("unexpected notification: %+v", received.Notification)
	}
	if received.Data["type"] != "trending_alert" {
		t.Errorf("unexpected data: %v", received.Data)
	}
}

func TestSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fcmResponse{
			Failure: 1,
			Results: []struct {
				Error string `json:"error"`
			}{{Error: "NotRegistered"}},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "server-key")
	err := client.Send(context.Background(), "stale-token", "Title", "Body", nil)
	if err == nil {
		t.Fatal("expected error for rejected message")
	}
}

func TestSendGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "server-key")
	if err := client.Send(context.Background(), "t", "Title", "Body", nil); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestUnconfiguredClientNoOps(t *testing.T) {
	client := NewClient("https://fcm.googleapis.com/fcm/send", "")
	if client != nil {
		t.Fatal("expected nil client without server key")
	}
	// Sends through a nil client must not panic or error
	if err := client.Send(context.Background(), "t", "Title", "Body", nil); err != nil {
		t.Errorf("nil client send returned error: %v", err)
	}
}
