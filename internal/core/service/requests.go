package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lifelink/coordination-api/internal/api/metrics"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// CreateRequest opens a new blood request on behalf of a recipient.
func (c *Coordinator) CreateRequest(ctx context.Context, recipientID string, in ports.CreateRequestInput) (_ *domain.BloodRequest, err error) {
	ctx, end := c.observe(ctx, "CreateRequest", attribute.String("principal.id", recipientID))
	defer func() { end(err) }()

	recipient, err := c.loadProfile(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	if !recipient.Role.CanRequestBlood() {
		return nil, fmt.Errorf("%w: only recipients can create blood requests", domain.ErrRoleViolation)
	}

	now := c.now()
	if err := validateRequestInput(in, now); err != nil {
		return nil, err
	}

	req := &domain.BloodRequest{
		ID:              c.newID(),
		RecipientID:     recipientID,
		BloodGroup:      in.BloodGroup,
		UnitsNeeded:     in.UnitsNeeded,
		Urgency:         in.Urgency,
		UrgencyRank:     in.Urgency.Rank(),
		HospitalName:    strings.TrimSpace(in.HospitalName),
		HospitalAddress: strings.TrimSpace(in.HospitalAddress),
		ContactPhone:    strings.TrimSpace(in.ContactPhone),
		AdditionalNotes: strings.TrimSpace(in.AdditionalNotes),
		NeededBy:        in.NeededBy.UTC(),
		Status:          domain.RequestOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := c.requests.Create(ctx, req); err != nil {
		c.log.Error().Err(err).Str("recipient_id", recipientID).Msg("failed to create blood request")
		return nil, storeFault("create request", err)
	}

	metrics.RequestsCreatedTotal.WithLabelValues(string(req.BloodGroup), string(req.Urgency)).Inc()
	c.log.Info().
		Str("request_id", req.ID).
		Str("recipient_id", recipientID).
		Str("blood_group", string(req.BloodGroup)).
		Str("urgency", string(req.Urgency)).
		Msg("blood request created")

	return req, nil
}

func validateRequestInput(in ports.CreateRequestInput, now time.Time) error {
	switch {
	case in.UnitsNeeded < 1:
		return domain.Invalid("units_needed", "must be at least 1")
	case !in.BloodGroup.Valid():
		return domain.Invalid("blood_group", "must be one of A+ A- B+ B- AB+ AB- O+ O-")
	case !in.Urgency.Valid():
		return domain.Invalid("urgency", "must be one of low medium high critical")
	case in.NeededBy.IsZero() || in.NeededBy.Before(now):
		return domain.Invalid("needed_by", "must not be in the past")
	case strings.TrimSpace(in.HospitalName) == "":
		return domain.Invalid("hospital_name", "is required")
	case strings.TrimSpace(in.ContactPhone) == "":
		return domain.Invalid("contact_phone", "is required")
	}
	return nil
}

// GetRequest returns a single blood request.
func (c *Coordinator) GetRequest(ctx context.Context, requestID string) (_ *domain.BloodRequest, err error) {
	ctx, end := c.observe(ctx, "GetRequest", attribute.String("request.id", requestID))
	defer func() { end(err) }()

	return c.loadRequest(ctx, requestID)
}

// ListRequestsForRecipient returns the recipient's requests, newest first.
func (c *Coordinator) ListRequestsForRecipient(ctx context.Context, recipientID string) (_ []*domain.BloodRequest, err error) {
	ctx, end := c.observe(ctx, "ListRequestsForRecipient", attribute.String("principal.id", recipientID))
	defer func() { end(err) }()

	reqs, err := c.requests.ListByRecipient(ctx, recipientID)
	if err != nil {
		return nil, storeFault("list recipient requests", err)
	}
	domain.SortNewestFirst(reqs)
	return reqs, nil
}

// ListOpenRequestsByBloodGroup returns open requests for a blood group, most
// urgent first and longest waiting first within the same urgency.
func (c *Coordinator) ListOpenRequestsByBloodGroup(ctx context.Context, group domain.BloodGroup) (_ []*domain.BloodRequest, err error) {
	ctx, end := c.observe(ctx, "ListOpenRequestsByBloodGroup", attribute.String("blood_group", string(group)))
	defer func() { end(err) }()

	if !group.Valid() {
		return nil, domain.Invalid("blood_group", "must be one of A+ A- B+ B- AB+ AB- O+ O-")
	}
	reqs, err := c.requests.ListOpenByBloodGroup(ctx, group)
	if err != nil {
		return nil, storeFault("list open requests", err)
	}
	domain.SortByPriority(reqs)
	return reqs, nil
}

// ListAllRequests returns every request with its recipient's name and email,
// newest first. Admin only.
func (c *Coordinator) ListAllRequests(ctx context.Context, callerID string) (_ []ports.RequestWithRecipient, err error) {
	ctx, end := c.observe(ctx, "ListAllRequests")
	defer func() { end(err) }()

	if err := c.requireOperator(ctx, callerID); err != nil {
		return nil, err
	}
	reqs, err := c.requests.ListAll(ctx)
	if err != nil {
		return nil, storeFault("list requests", err)
	}
	domain.SortNewestFirst(reqs)

	ids := make([]string, len(reqs))
	for i, r := range reqs {
		ids[i] = r.RecipientID
	}
	recipients, err := c.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]ports.RequestWithRecipient, len(reqs))
	for i, r := range reqs {
		out[i] = ports.RequestWithRecipient{BloodRequest: r}
		if p, ok := recipients[r.RecipientID]; ok {
			out[i].RecipientName = p.FullName
			out[i].RecipientEmail = p.Email
		}
	}
	return out, nil
}

// SetRequestStatus closes a request. Only the owning recipient or an admin
// may do so, and only from open.
func (c *Coordinator) SetRequestStatus(ctx context.Context, requestID string, status domain.RequestStatus, callerID string) (_ *domain.BloodRequest, err error) {
	ctx, end := c.observe(ctx, "SetRequestStatus",
		attribute.String("request.id", requestID),
		attribute.String("status", string(status)),
	)
	defer func() { end(err) }()

	req, err := c.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := c.requireOwnerOrOperator(ctx, req, callerID, "only the requesting recipient or an admin can change this request"); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", "must be one of open fulfilled cancelled")
	}
	if !req.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, req.Status, status)
	}

	updated, err := c.requests.UpdateStatus(ctx, requestID, req.Status, status, c.now())
	if err != nil {
		return nil, storeFault("update request status", err)
	}

	metrics.RequestTransitionsTotal.WithLabelValues(string(status)).Inc()
	c.log.Info().
		Str("request_id", requestID).
		Str("from", string(req.Status)).
		Str("to", string(status)).
		Str("caller_id", callerID).
		Msg("blood request status changed")

	c.announceRequestStatus(ctx, updated, callerID)
	return updated, nil
}

// announceRequestStatus tells the owner (when an admin acted) and every donor
// still holding an active interest that the request changed.
func (c *Coordinator) announceRequestStatus(ctx context.Context, req *domain.BloodRequest, actorID string) {
	base := domain.WorkflowEvent{
		Type:      domain.EventRequestStatus,
		ActorID:   actorID,
		RequestID: req.ID,
		Status:    string(req.Status),
	}

	owner := base
	owner.AudienceID = req.RecipientID
	owner.Message = fmt.Sprintf("Your %s blood request was marked %s by an administrator", req.BloodGroup, req.Status)
	c.notify(owner)

	interests, err := c.interests.ListByRequest(ctx, req.ID)
	if err != nil {
		c.log.Warn().Err(err).Str("request_id", req.ID).Msg("could not load interests for notification")
		return
	}
	for _, in := range interests {
		if !in.Status.Active() {
			continue
		}
		donor := base
		donor.AudienceID = in.DonorID
		donor.InterestID = in.ID
		donor.Message = fmt.Sprintf("The %s blood request at %s is now %s", req.BloodGroup, req.HospitalName, req.Status)
		c.notify(donor)
	}
}
