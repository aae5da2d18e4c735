package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const testSecret = "router-test-secret"

type routerAuth struct{}

func (routerAuth) Register(context.Context, ports.RegisterInput) (*domain.User, error) {
	return nil, domain.ErrUserExists
}

func (routerAuth) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrTooManyAttempts
}

// routerWorkflow implements the calls the routing tests reach. Anything else
// hits the nil embedded interface and panics, which Recover turns into a 500.
type routerWorkflow struct {
	ports.WorkflowService
	calls []string
}

func (w *routerWorkflow) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	w.calls = append(w.calls, "GetProfile")
	return &domain.Profile{ID: id, Role: domain.RoleDonor}, nil
}

func (w *routerWorkflow) ExpressInterest(context.Context, string, string) (*domain.DonationInterest, error) {
	w.calls = append(w.calls, "ExpressInterest")
	return nil, domain.ErrDuplicateInterest
}

func (w *routerWorkflow) ListRequestsForRecipient(context.Context, string) ([]*domain.BloodRequest, error) {
	w.calls = append(w.calls, "ListRequestsForRecipient")
	return []*domain.BloodRequest{}, nil
}

func (w *routerWorkflow) ListAllRequests(context.Context, string) ([]ports.RequestWithRecipient, error) {
	w.calls = append(w.calls, "ListAllRequests")
	return []ports.RequestWithRecipient{}, nil
}

func newTestRouter(t *testing.T) (*echo.Echo, *routerWorkflow) {
	t.Helper()
	wf := &routerWorkflow{}
	e := NewRouter(Dependencies{
		Auth:      routerAuth{},
		Workflow:  wf,
		JWTSecret: testSecret,
		Log:       zerolog.Nop(),
		Metrics:   prometheus.NewRegistry(),
	})
	return e, wf
}

func bearer(t *testing.T, sub string, role domain.Role) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": string(role),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(e *echo.Echo, method, target, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(e, http.MethodPost, "/auth/login", "", `{"email":"a@example.com","password":"pw"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many login attempts"}`, rec.Body.String())

	rec = serve(e, http.MethodPost, "/auth/register", "", `{"email":"a@example.com","password":"correct-horse","full_name":"A","role":"admin"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRouter_RequiresToken(t *testing.T) {
	e, wf := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/v1/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)

	rec = serve(e, http.MethodGet, "/v1/profile", bearer(t, "d-1", domain.RoleDonor), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"d-1"`)
	assert.Equal(t, []string{"GetProfile"}, wf.calls)
}

func TestRouter_RoleGates(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		target   string
		role     domain.Role
		wantCode int
	}{
		{"donor cannot open a request", http.MethodPost, "/v1/requests", domain.RoleDonor, http.StatusForbidden},
		{"recipient cannot express interest", http.MethodPost, "/v1/requests/r-1/interests", domain.RoleRecipient, http.StatusForbidden},
		{"donor cannot list request donors", http.MethodGet, "/v1/requests/r-1/interests", domain.RoleDonor, http.StatusForbidden},
		{"donor cannot list admin requests", http.MethodGet, "/v1/admin/requests", domain.RoleDonor, http.StatusForbidden},
		{"recipient lists own requests", http.MethodGet, "/v1/requests/mine", domain.RoleRecipient, http.StatusOK},
		{"admin lists all requests", http.MethodGet, "/v1/admin/requests", domain.RoleAdmin, http.StatusOK},
		{"donor duplicate interest", http.MethodPost, "/v1/requests/r-1/interests", domain.RoleDonor, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestRouter(t)
			rec := serve(e, tt.method, tt.target, bearer(t, "p-1", tt.role), "")
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_HandlerValidation(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/v1/requests", bearer(t, "r-1", domain.RoleRecipient), `{"blood_group":"O-"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "units_needed is required")
}
