package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/KMohir/ProyektSXF/telegram"
)

func TestHealthEndpoint(t *testing.T) {
	r := InitRouter(telegram.NewBot(nil, nil), "")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestWebhookRequiresSecret(t *testing.T) {
	r := InitRouter(telegram.NewBot(nil, nil), "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/v1/telegram/webhook", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without the secret token, got %d", rec.Code)
	}
}

func TestWebhookRejectsGet(t *testing.T) {
	r := InitRouter(telegram.NewBot(nil, nil), "")

	req := httptest.NewRequest(http.MethodGet, "/v1/telegram/webhook", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET, got %d", rec.Code)
	}
}
