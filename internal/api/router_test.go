package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSetupRouter_BasicRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.LLM.Name = "test-model"
	cfg.LLM.APIKey = "sk-secret"
	r := SetupRouter(cfg, Deps{Turns: &fakeTurns{}, Sessions: &fakeSessions{}})

	// Health route should exist and return 200
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /health should return 200, got %d", w.Code)
	}

	// Config must never expose secrets
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("GET", "/config", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("GET /config should return 200, got %d", w2.Code)
	}
	if strings.Contains(w2.Body.String(), "sk-secret") || strings.Contains(w2.Body.String(), testSecret) {
		t.Errorf("config leaked a secret: %s", w2.Body.String())
	}
	var body map[string]map[string]any
	if err := json.Unmarshal(w2.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode config: %v", err)
	}
	if body["llm"]["name"] != "test-model" {
		t.Errorf("unexpected config body: %v", body)
	}

	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, httptest.NewRequest("GET", "/metrics", nil))
	if w3.Code != http.StatusOK || !strings.Contains(w3.Body.String(), "go_goroutines") {
		t.Errorf("GET /metrics should expose prometheus metrics, got %d", w3.Code)
	}
}

func TestSetupRouter_Subpath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	cfg.Server.Subpath = "/insure"
	r := SetupRouter(cfg, Deps{Turns: &fakeTurns{}, Sessions: &fakeSessions{}})

	// Should correctly prefix routes with subpath
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/insure/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("GET /insure/health should return 200, got %d", w.Code)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest("POST", "/insure/chat", strings.NewReader(`{"phone_number":"1","query":"hi"}`)))
	if w2.Code != http.StatusOK {
		t.Errorf("POST /insure/chat should return 200, got %d", w2.Code)
	}
}
