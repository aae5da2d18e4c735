package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/api/middleware"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

var errNotStubbed = errors.New("not stubbed")

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

// stubWorkflow answers only the calls a test wires; everything else fails.
type stubWorkflow struct {
	getProfile     func(id string) (*domain.Profile, error)
	updateProfile  func(id string, patch domain.ProfilePatch) (*domain.Profile, error)
	listProfiles   func(callerID string) ([]*domain.Profile, error)
	createRequest  func(recipientID string, in ports.CreateRequestInput) (*domain.BloodRequest, error)
	getRequest     func(id string) (*domain.BloodRequest, error)
	listMine       func(recipientID string) ([]*domain.BloodRequest, error)
	listOpen       func(group domain.BloodGroup) ([]*domain.BloodRequest, error)
	listAll        func(callerID string) ([]ports.RequestWithRecipient, error)
	setRequest     func(id string, status domain.RequestStatus, callerID string) (*domain.BloodRequest, error)
	express        func(donorID, requestID string) (*domain.DonationInterest, error)
	listForRequest func(requestID, callerID string) ([]ports.InterestWithDonor, error)
	listForDonor   func(donorID string) ([]*domain.DonationInterest, error)
	setInterest    func(id string, status domain.InterestStatus, callerID string) (*domain.DonationInterest, error)
	dashboard      func(callerID string) (*ports.Dashboard, error)
}

var _ ports.WorkflowService = (*stubWorkflow)(nil)

func (s *stubWorkflow) GetProfile(_ context.Context, id string) (*domain.Profile, error) {
	if s.getProfile == nil {
		return nil, errNotStubbed
	}
	return s.getProfile(id)
}

func (s *stubWorkflow) UpdateProfile(_ context.Context, id string, patch domain.ProfilePatch) (*domain.Profile, error) {
	if s.updateProfile == nil {
		return nil, errNotStubbed
	}
	return s.updateProfile(id, patch)
}

func (s *stubWorkflow) ListProfiles(_ context.Context, callerID string) ([]*domain.Profile, error) {
	if s.listProfiles == nil {
		return nil, errNotStubbed
	}
	return s.listProfiles(callerID)
}

func (s *stubWorkflow) CreateRequest(_ context.Context, recipientID string, in ports.CreateRequestInput) (*domain.BloodRequest, error) {
	if s.createRequest == nil {
		return nil, errNotStubbed
	}
	return s.createRequest(recipientID, in)
}

func (s *stubWorkflow) GetRequest(_ context.Context, id string) (*domain.BloodRequest, error) {
	if s.getRequest == nil {
		return nil, errNotStubbed
	}
	return s.getRequest(id)
}

func (s *stubWorkflow) ListRequestsForRecipient(_ context.Context, recipientID string) ([]*domain.BloodRequest, error) {
	if s.listMine == nil {
		return nil, errNotStubbed
	}
	return s.listMine(recipientID)
}

func (s *stubWorkflow) ListOpenRequestsByBloodGroup(_ context.Context, group domain.BloodGroup) ([]*domain.BloodRequest, error) {
	if s.listOpen == nil {
		return nil, errNotStubbed
	}
	return s.listOpen(group)
}

func (s *stubWorkflow) ListAllRequests(_ context.Context, callerID string) ([]ports.RequestWithRecipient, error) {
	if s.listAll == nil {
		return nil, errNotStubbed
	}
	return s.listAll(callerID)
}

func (s *stubWorkflow) SetRequestStatus(_ context.Context, id string, status domain.RequestStatus, callerID string) (*domain.BloodRequest, error) {
	if s.setRequest == nil {
		return nil, errNotStubbed
	}
	return s.setRequest(id, status, callerID)
}

func (s *stubWorkflow) ExpressInterest(_ context.Context, donorID, requestID string) (*domain.DonationInterest, error) {
	if s.express == nil {
		return nil, errNotStubbed
	}
	return s.express(donorID, requestID)
}

func (s *stubWorkflow) ListInterestsForRequest(_ context.Context, requestID, callerID string) ([]ports.InterestWithDonor, error) {
	if s.listForRequest == nil {
		return nil, errNotStubbed
	}
	return s.listForRequest(requestID, callerID)
}

func (s *stubWorkflow) ListInterestsForDonor(_ context.Context, donorID string) ([]*domain.DonationInterest, error) {
	if s.listForDonor == nil {
		return nil, errNotStubbed
	}
	return s.listForDonor(donorID)
}

func (s *stubWorkflow) SetInterestStatus(_ context.Context, id string, status domain.InterestStatus, callerID string) (*domain.DonationInterest, error) {
	if s.setInterest == nil {
		return nil, errNotStubbed
	}
	return s.setInterest(id, status, callerID)
}

func (s *stubWorkflow) Dashboard(_ context.Context, callerID string) (*ports.Dashboard, error) {
	if s.dashboard == nil {
		return nil, errNotStubbed
	}
	return s.dashboard(callerID)
}

// newContext builds an echo context with the validator installed. A non-empty
// principal is set the way the Auth middleware would.
func newContext(method, target, body, principal string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != "" {
		c.Set(middleware.KeyPrincipalID, principal)
	}
	return c, rec
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

type decodedEnvelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) decodedEnvelope {
	t.Helper()
	var env decodedEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data: %v", err)
		}
	}
	return env
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError, got %v", err)
	}
	if he.Code != code {
		t.Fatalf("expected %d, got %d", code, he.Code)
	}
}

func assertNoBody(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Body.Len() != 0 || rec.Code != http.StatusOK {
		t.Fatalf("handler wrote a response on error: %d %s", rec.Code, rec.Body.String())
	}
}
