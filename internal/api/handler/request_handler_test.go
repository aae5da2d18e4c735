package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const createBody = `{
	"blood_group": "O-",
	"units_needed": 2,
	"urgency": "critical",
	"hospital_name": "St. Mary",
	"hospital_address": "1 Main St",
	"contact_phone": "555-0199",
	"needed_by": "2030-01-02T15:04:05Z"
}`

func TestRequestHandler_Create(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{
		createRequest: func(recipientID string, in ports.CreateRequestInput) (*domain.BloodRequest, error) {
			if recipientID != "rcp-1" {
				t.Fatalf("unexpected recipient %q", recipientID)
			}
			want := time.Date(2030, 1, 2, 15, 4, 5, 0, time.UTC)
			if in.BloodGroup != domain.BloodONeg || in.UnitsNeeded != 2 || in.Urgency != domain.UrgencyCritical || !in.NeededBy.Equal(want) {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.BloodRequest{
				ID: "req-1", RecipientID: recipientID, BloodGroup: in.BloodGroup,
				UnitsNeeded: in.UnitsNeeded, Urgency: in.Urgency, Status: domain.RequestOpen,
			}, nil
		},
	})

	c, rec := newContext(http.MethodPost, "/v1/requests", createBody, "rcp-1")
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/v1/requests/req-1" {
		t.Fatalf("unexpected location %q", loc)
	}

	var r domain.BloodRequest
	env := decode(t, rec, &r)
	if env.Message != "Blood request for 2 unit(s) of O- created." {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if r.Status != domain.RequestOpen {
		t.Fatalf("unexpected status %q", r.Status)
	}
}

func TestRequestHandler_Create_Validation(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{})

	cases := map[string]string{
		"unknown group": `{"blood_group":"C+","units_needed":1,"urgency":"low","hospital_name":"H","contact_phone":"1","needed_by":"2030-01-02T15:04:05Z"}`,
		"zero units":    `{"blood_group":"A+","units_needed":0,"urgency":"low","hospital_name":"H","contact_phone":"1","needed_by":"2030-01-02T15:04:05Z"}`,
		"bad urgency":   `{"blood_group":"A+","units_needed":1,"urgency":"urgent","hospital_name":"H","contact_phone":"1","needed_by":"2030-01-02T15:04:05Z"}`,
		"no hospital":   `{"blood_group":"A+","units_needed":1,"urgency":"low","contact_phone":"1","needed_by":"2030-01-02T15:04:05Z"}`,
		"no needed_by":  `{"blood_group":"A+","units_needed":1,"urgency":"low","hospital_name":"H","contact_phone":"1"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/v1/requests", body, "rcp-1")
			if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestRequestHandler_Open_PassesBloodGroup(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{
		listOpen: func(group domain.BloodGroup) ([]*domain.BloodRequest, error) {
			if group != domain.BloodABNeg {
				t.Fatalf("unexpected group %q", group)
			}
			return []*domain.BloodRequest{{ID: "a"}, {ID: "b"}}, nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/requests/open?blood_group=AB-", "", "d-1")
	if err := handler.Open(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var reqs []domain.BloodRequest
	decode(t, rec, &reqs)
	if len(reqs) != 2 || reqs[0].ID != "a" {
		t.Fatalf("unexpected list: %+v", reqs)
	}
}

func TestRequestHandler_Open_UnescapedPlus(t *testing.T) {
	var seen domain.BloodGroup
	handler := NewRequestHandler(&stubWorkflow{
		listOpen: func(group domain.BloodGroup) ([]*domain.BloodRequest, error) {
			seen = group
			return []*domain.BloodRequest{}, nil
		},
	})

	for _, target := range []string{"/v1/requests/open?blood_group=O+", "/v1/requests/open?blood_group=O%2B"} {
		seen = ""
		c, _ := newContext(http.MethodGet, target, "", "d-1")
		if err := handler.Open(c); err != nil {
			t.Fatalf("%s: handler error: %v", target, err)
		}
		if seen != domain.BloodOPos {
			t.Fatalf("%s: expected O+, got %q", target, seen)
		}
	}
}

func TestRequestHandler_Get(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{
		getRequest: func(id string) (*domain.BloodRequest, error) {
			if id == "missing" {
				return nil, domain.ErrRequestNotFound
			}
			return &domain.BloodRequest{ID: id}, nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/requests/req-9", "", "d-1")
	if err := handler.Get(withParam(c, "id", "req-9")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var r domain.BloodRequest
	decode(t, rec, &r)
	if r.ID != "req-9" {
		t.Fatalf("unexpected id %q", r.ID)
	}

	c, _ = newContext(http.MethodGet, "/v1/requests/missing", "", "d-1")
	if err := handler.Get(withParam(c, "id", "missing")); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRequestHandler_Mine(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{
		listMine: func(recipientID string) ([]*domain.BloodRequest, error) {
			return []*domain.BloodRequest{{ID: "r-2", RecipientID: recipientID}}, nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/requests/mine", "", "rcp-1")
	if err := handler.Mine(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var reqs []domain.BloodRequest
	decode(t, rec, &reqs)
	if len(reqs) != 1 || reqs[0].RecipientID != "rcp-1" {
		t.Fatalf("unexpected list: %+v", reqs)
	}
}

func TestRequestHandler_SetStatus(t *testing.T) {
	handler := NewRequestHandler(&stubWorkflow{
		setRequest: func(id string, status domain.RequestStatus, callerID string) (*domain.BloodRequest, error) {
			if id != "req-1" || callerID != "rcp-1" {
				t.Fatalf("unexpected args %q %q", id, callerID)
			}
			if status != domain.RequestFulfilled {
				return nil, domain.ErrInvalidTransition
			}
			return &domain.BloodRequest{ID: id, Status: status}, nil
		},
	})

	c, rec := newContext(http.MethodPatch, "/v1/requests/req-1/status", `{"status":"fulfilled"}`, "rcp-1")
	if err := handler.SetStatus(withParam(c, "id", "req-1")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	env := decode(t, rec, nil)
	if env.Message != "Blood request marked fulfilled." {
		t.Fatalf("unexpected message %q", env.Message)
	}

	c, _ = newContext(http.MethodPatch, "/v1/requests/req-1/status", `{"status":"open"}`, "rcp-1")
	if err := handler.SetStatus(withParam(c, "id", "req-1")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	c, _ = newContext(http.MethodPatch, "/v1/requests/req-1/status", `{}`, "rcp-1")
	if err := handler.SetStatus(withParam(c, "id", "req-1")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
