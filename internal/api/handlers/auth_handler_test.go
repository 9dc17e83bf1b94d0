package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway/local"
	"github.com/kidsgo-app/kidsgo-backend/internal/invites"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
	"github.com/kidsgo-app/kidsgo-backend/internal/services"
)

type memRecords struct {
	rows map[string][]gateway.Row
}

func newMemRecords() *memRecords {
	return &memRecords{rows: map[string][]gateway.Row{}}
}

func rowMatches(row gateway.Row, filter gateway.Filter) bool {
	for k, v := range filter {
		if row[k] != v {
			return false
		}
	}
	return true
}

func (m *memRecords) Select(ctx context.Context, table string, filter gateway.Filter) ([]gateway.Row, error) {
	var out []gateway.Row
	for _, r := range m.rows[table] {
		if rowMatches(r, filter) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecords) Insert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	if id, ok := row["id"]; ok {
		for _, r := range m.rows[table] {
			if r["id"] == id {
				return nil, gateway.E(gateway.KindConflict, "duplicate id", nil)
			}
		}
	}
	m.rows[table] = append(m.rows[table], row)
	return row, nil
}

func (m *memRecords) Update(ctx context.Context, table string, patch gateway.Row, filter gateway.Filter) (gateway.Row, error) {
	var last gateway.Row
	for _, r := range m.rows[table] {
		if rowMatches(r, filter) {
			for k, v := range patch {
				r[k] = v
			}
			last = r
		}
	}
	if last == nil {
		return nil, gateway.E(gateway.KindNotFound, "no matching row", nil)
	}
	return last, nil
}

func (m *memRecords) Upsert(ctx context.Context, table string, row gateway.Row) (gateway.Row, error) {
	m.rows[table] = append(m.rows[table], row)
	return row, nil
}

func (m *memRecords) Delete(ctx context.Context, table string, filter gateway.Filter) error {
	return nil
}

type authFixture struct {
	router  *gin.Engine
	auth    *local.Auth
	records *memRecords
}

func newAuthFixture() *authFixture {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	records := newMemRecords()
	auth := local.New()
	h := NewAuthHandler(auth, provision.New(records, log), invites.New(records, log),
		services.NewAuditService(nil, log))

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)

	return &authFixture{router: r, auth: auth, records: records}
}

func (f *authFixture) post(path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func (f *authFixture) seedInvite(code, email string) {
	f.records.rows["provider_signup_codes"] = append(f.records.rows["provider_signup_codes"], gateway.Row{
		"id":         "inv-1",
		"code":       code,
		"email":      email,
		"expires_at": time.Now().UTC().Add(time.Hour),
		"used":       false,
	})
}

func profileRole(t *testing.T, w *httptest.ResponseRecorder) models.Role {
	t.Helper()
	var res struct {
		Profile *models.Profile `json:"profile"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Profile == nil {
		t.Fatalf("expected a profile in the response, got %s", w.Body.String())
	}
	return res.Profile.Role
}

// A public signup asking for admin gets a parent profile; admin is never
// self-assignable.
func TestSignupCannotSelfAssignAdmin(t *testing.T) {
	f := newAuthFixture()

	w := f.post("/auth/signup", `{"email":"mallory@example.com","password":"password123","role":"admin"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if role := profileRole(t, w); role != models.RoleParent {
		t.Fatalf("expected parent profile, got %q", role)
	}
}

func TestSignupProviderRequiresInvite(t *testing.T) {
	f := newAuthFixture()

	w := f.post("/auth/signup", `{"email":"pro@example.com","password":"password123","role":"provider"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without an invite, got %d (%s)", w.Code, w.Body.String())
	}
}

func TestSignupProviderWithInvite(t *testing.T) {
	f := newAuthFixture()
	f.seedInvite("ABCDEF", "pro@example.com")

	w := f.post("/auth/signup", `{"email":"pro@example.com","password":"password123","role":"provider","invite_code":"ABCDEF"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	if role := profileRole(t, w); role != models.RoleProvider {
		t.Fatalf("expected provider profile, got %q", role)
	}

	row := f.records.rows["provider_signup_codes"][0]
	if row["used"] != true {
		t.Fatal("expected the invite consumed")
	}
}

// Login provisions missing profiles with the parent default regardless of
// anything the client sends.
func TestLoginIgnoresRequestedRole(t *testing.T) {
	f := newAuthFixture()
	f.auth.Seed("eve@example.com", "password123")

	w := f.post("/auth/login", `{"email":"eve@example.com","password":"password123","role":"admin"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if role := profileRole(t, w); role != models.RoleParent {
		t.Fatalf("expected parent profile, got %q", role)
	}
}
