package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lifelink/coordination-api/internal/api/metrics"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const tracerName = "github.com/lifelink/coordination-api/workflow"

// Coordinator enforces the rules that span profiles, blood requests and
// donation interests. Every method is a single synchronous round of store
// calls and returns either the resulting entity or one domain error.
type Coordinator struct {
	profiles  ports.ProfileRepository
	requests  ports.RequestRepository
	interests ports.InterestRepository
	logins    ports.LoginEmails
	claims    ports.InterestClaims
	events    ports.EventPublisher
	log       zerolog.Logger
	tracer    trace.Tracer

	now   func() time.Time
	newID func() string
}

var _ ports.WorkflowService = (*Coordinator)(nil)

// NewCoordinator wires the coordinator. logins, claims and events may be nil.
func NewCoordinator(
	profiles ports.ProfileRepository,
	requests ports.RequestRepository,
	interests ports.InterestRepository,
	logins ports.LoginEmails,
	claims ports.InterestClaims,
	events ports.EventPublisher,
	log zerolog.Logger,
) *Coordinator {
	if logins == nil {
		logins = noLogins{}
	}
	if claims == nil {
		claims = noClaims{}
	}
	if events == nil {
		events = noEvents{}
	}
	return &Coordinator{
		profiles:  profiles,
		requests:  requests,
		interests: interests,
		logins:    logins,
		claims:    claims,
		events:    events,
		log:       log,
		tracer:    otel.Tracer(tracerName),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// observe opens a span for op and returns the function that closes it,
// recording the outcome on the span and in the workflow metrics.
func (c *Coordinator) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "workflow."+op, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		result := "ok"
		if err != nil {
			result = domain.Kind(err)
			if result == "" {
				result = "internal"
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		metrics.WorkflowOpsTotal.WithLabelValues(op, result).Inc()
		metrics.WorkflowOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}
}

// storeFault passes domain errors through and classifies anything else as
// the store being unavailable.
func storeFault(op string, err error) error {
	if err == nil || domain.Kind(err) != "" {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

func (c *Coordinator) loadProfile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := c.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, storeFault("load profile", err)
	}
	return p, nil
}

func (c *Coordinator) loadRequest(ctx context.Context, id string) (*domain.BloodRequest, error) {
	r, err := c.requests.FindByID(ctx, id)
	if err != nil {
		return nil, storeFault("load request", err)
	}
	return r, nil
}

func (c *Coordinator) requireOperator(ctx context.Context, callerID string) error {
	caller, err := c.loadProfile(ctx, callerID)
	if err != nil {
		return err
	}
	if !caller.Role.IsOperator() {
		return fmt.Errorf("%w: admin role required", domain.ErrRoleViolation)
	}
	return nil
}

// requireOwnerOrOperator lets the request's recipient through, then admins.
// Everyone else gets ErrForbidden with reason.
func (c *Coordinator) requireOwnerOrOperator(ctx context.Context, req *domain.BloodRequest, callerID, reason string) error {
	if req.OwnedBy(callerID) {
		return nil
	}
	if err := c.requireOperator(ctx, callerID); err != nil {
		if isNotFound(err) || errors.Is(err, domain.ErrRoleViolation) {
			return fmt.Errorf("%w: %s", domain.ErrForbidden, reason)
		}
		return err
	}
	return nil
}

// profilesByID reads each distinct profile once. Ids without a profile are
// left out of the map.
func (c *Coordinator) profilesByID(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		p, err := c.profiles.FindByID(ctx, id)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, storeFault("load profile", err)
		}
		out[id] = p
	}
	return out, nil
}

func (c *Coordinator) notify(ev domain.WorkflowEvent) {
	if ev.AudienceID == "" || ev.AudienceID == ev.ActorID {
		return
	}
	ev.OccurredAt = c.now()
	c.events.Publish(ev)
}

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

type noClaims struct{}

func (noClaims) Claim(context.Context, string, string) (bool, error) { return true, nil }
func (noClaims) Release(context.Context, string, string) error       { return nil }

type noLogins struct{}

func (noLogins) UpdateEmail(context.Context, string, string) error { return domain.ErrUserNotFound }

type noEvents struct{}

func (noEvents) Publish(domain.WorkflowEvent) {}
