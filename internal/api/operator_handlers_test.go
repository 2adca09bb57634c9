package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"go-insure/internal/auth"
	"go-insure/internal/session"
)

func operatorRouter(t *testing.T, sessions SessionReader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return SetupRouter(testConfig(), Deps{Turns: &fakeTurns{}, Sessions: sessions})
}

func operatorGet(t *testing.T, r *gin.Engine, path, role string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateJWT(testSecret, "ops", role, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	return w
}

func TestListLeadsHandler(t *testing.T) {
	policy := "P1"
	sessions := &fakeSessions{leads: []session.Lead{
		{ID: 2, UserID: 1, Name: "Asha Rao", PolicyID: &policy, ContactMethod: "email", ContactValue: "asha@example.com"},
	}}
	r := operatorRouter(t, sessions)

	w := operatorGet(t, r, "/operator/leads?limit=5", auth.RoleOperator)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Leads []session.Lead `json:"leads"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Leads) != 1 || body.Leads[0].ContactValue != "asha@example.com" {
		t.Errorf("unexpected leads: %+v", body.Leads)
	}
	if sessions.limit != 5 {
		t.Errorf("limit not passed through: %d", sessions.limit)
	}

	if w := operatorGet(t, r, "/operator/leads?limit=abc", auth.RoleOperator); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected 400, got %d", w.Code)
	}
}

func TestListLeadsHandler_StoreError(t *testing.T) {
	r := operatorRouter(t, &fakeSessions{err: errBoom})
	if w := operatorGet(t, r, "/operator/leads", auth.RoleOperator); w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestGetSessionHandler(t *testing.T) {
	sessions := &fakeSessions{sessions: map[string]*session.Session{
		"9000000001": {UserID: 1, PhoneNumber: "9000000001", ContextState: "age", Age: 35},
	}}
	r := operatorRouter(t, sessions)

	w := operatorGet(t, r, "/operator/sessions/9000000001", auth.RoleOperator)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got session.Session
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got.ContextState != "age" || got.Age != 35 {
		t.Errorf("unexpected session: %+v", got)
	}

	if w := operatorGet(t, r, "/operator/sessions/9999999999", auth.RoleOperator); w.Code != http.StatusNotFound {
		t.Errorf("unknown phone: expected 404, got %d", w.Code)
	}
}

func TestOperatorRoutes_RequireOperatorRole(t *testing.T) {
	r := operatorRouter(t, &fakeSessions{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/operator/leads", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", w.Code)
	}
	if w := operatorGet(t, r, "/operator/leads", "viewer"); w.Code != http.StatusForbidden {
		t.Errorf("wrong role: expected 403, got %d", w.Code)
	}
}
