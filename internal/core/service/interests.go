package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lifelink/coordination-api/internal/api/metrics"
	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// ExpressInterest records a donor's offer to give blood for an open request.
func (c *Coordinator) ExpressInterest(ctx context.Context, donorID, requestID string) (_ *domain.DonationInterest, err error) {
	ctx, end := c.observe(ctx, "ExpressInterest",
		attribute.String("principal.id", donorID),
		attribute.String("request.id", requestID),
	)
	defer func() { end(err) }()

	donor, err := c.loadProfile(ctx, donorID)
	if err != nil {
		return nil, err
	}
	if !donor.Role.CanDonate() {
		return nil, fmt.Errorf("%w: only donors can express donation interest", domain.ErrRoleViolation)
	}

	req, err := c.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != domain.RequestOpen {
		return nil, fmt.Errorf("%w (status %s)", domain.ErrRequestClosed, req.Status)
	}

	// 1. Claim the (donor, request) pair so concurrent attempts fail fast.
	claimed, err := c.claims.Claim(ctx, donorID, requestID)
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("donor_id", donorID).Str("request_id", requestID).Msg("interest claim failed, relying on store constraint")
	case !claimed:
		return nil, domain.ErrDuplicateInterest
	default:
		defer func() {
			if relErr := c.claims.Release(context.WithoutCancel(ctx), donorID, requestID); relErr != nil {
				c.log.Warn().Err(relErr).Str("donor_id", donorID).Str("request_id", requestID).Msg("failed to release interest claim")
			}
		}()
	}

	// 2. Reject an existing active interest before writing.
	if _, err := c.interests.FindActive(ctx, donorID, requestID); err == nil {
		return nil, domain.ErrDuplicateInterest
	} else if !isNotFound(err) {
		return nil, storeFault("find active interest", err)
	}

	// 3. Insert; the store's uniqueness constraint settles any remaining race.
	now := c.now()
	interest := &domain.DonationInterest{
		ID:        c.newID(),
		DonorID:   donorID,
		RequestID: requestID,
		Status:    domain.InterestPending,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.interests.Create(ctx, interest); err != nil {
		return nil, storeFault("create interest", err)
	}

	metrics.InterestsCreatedTotal.WithLabelValues(string(req.BloodGroup)).Inc()
	c.log.Info().
		Str("interest_id", interest.ID).
		Str("donor_id", donorID).
		Str("request_id", requestID).
		Msg("donation interest recorded")

	c.notify(domain.WorkflowEvent{
		Type:       domain.EventInterestExpressed,
		AudienceID: req.RecipientID,
		ActorID:    donorID,
		RequestID:  requestID,
		InterestID: interest.ID,
		Status:     string(interest.Status),
		Message:    fmt.Sprintf("%s offered to donate for your %s blood request", displayName(donor), req.BloodGroup),
	})

	return interest, nil
}

// ListInterestsForRequest returns the interests a request has received,
// oldest first, with each donor's contact details. Only the requesting
// recipient or an admin may see them.
func (c *Coordinator) ListInterestsForRequest(ctx context.Context, requestID, callerID string) (_ []ports.InterestWithDonor, err error) {
	ctx, end := c.observe(ctx, "ListInterestsForRequest",
		attribute.String("principal.id", callerID),
		attribute.String("request.id", requestID),
	)
	defer func() { end(err) }()

	req, err := c.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := c.requireOwnerOrOperator(ctx, req, callerID, "only the requesting recipient or an admin can see its donors"); err != nil {
		return nil, err
	}

	interests, err := c.interests.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, storeFault("list request interests", err)
	}
	return c.withDonors(ctx, interests)
}

func (c *Coordinator) withDonors(ctx context.Context, interests []*domain.DonationInterest) ([]ports.InterestWithDonor, error) {
	ids := make([]string, len(interests))
	for i, in := range interests {
		ids[i] = in.DonorID
	}
	donors, err := c.profilesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return donorViews(interests, donors), nil
}

func donorViews(interests []*domain.DonationInterest, donors map[string]*domain.Profile) []ports.InterestWithDonor {
	out := make([]ports.InterestWithDonor, len(interests))
	for i, in := range interests {
		out[i] = ports.InterestWithDonor{DonationInterest: in}
		if p, ok := donors[in.DonorID]; ok {
			out[i].DonorName = p.FullName
			out[i].DonorPhone = p.Phone
		}
	}
	return out
}

// ListInterestsForDonor returns the donor's history, newest first.
func (c *Coordinator) ListInterestsForDonor(ctx context.Context, donorID string) (_ []*domain.DonationInterest, err error) {
	ctx, end := c.observe(ctx, "ListInterestsForDonor", attribute.String("principal.id", donorID))
	defer func() { end(err) }()

	interests, err := c.interests.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, storeFault("list donor interests", err)
	}
	return interests, nil
}

// SetInterestStatus moves an interest along its lifecycle. Who may make a
// move is decided by the transition table in the domain package.
func (c *Coordinator) SetInterestStatus(ctx context.Context, interestID string, status domain.InterestStatus, callerID string) (_ *domain.DonationInterest, err error) {
	ctx, end := c.observe(ctx, "SetInterestStatus",
		attribute.String("interest.id", interestID),
		attribute.String("status", string(status)),
	)
	defer func() { end(err) }()

	interest, err := c.interests.FindByID(ctx, interestID)
	if err != nil {
		return nil, storeFault("load interest", err)
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", "must be one of pending confirmed completed cancelled")
	}
	if !interest.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, interest.Status, status)
	}

	req, err := c.loadRequest(ctx, interest.RequestID)
	if err != nil {
		return nil, err
	}

	allowed := interest.Status.AllowedParties(status)
	parties, err := c.partiesOf(ctx, callerID, interest, req, allowed)
	if err != nil {
		return nil, err
	}
	if !parties.Has(allowed) {
		return nil, fmt.Errorf("%w: caller may not move this interest to %s", domain.ErrForbidden, status)
	}

	updated, err := c.interests.UpdateStatus(ctx, interestID, interest.Status, status, c.now())
	if err != nil {
		return nil, storeFault("update interest status", err)
	}

	metrics.InterestTransitionsTotal.WithLabelValues(string(status)).Inc()
	c.log.Info().
		Str("interest_id", interestID).
		Str("from", string(interest.Status)).
		Str("to", string(status)).
		Str("caller_id", callerID).
		Msg("donation interest status changed")

	ev := domain.WorkflowEvent{
		Type:       domain.EventInterestStatus,
		ActorID:    callerID,
		RequestID:  req.ID,
		InterestID: interestID,
		Status:     string(status),
	}
	toDonor := ev
	toDonor.AudienceID = interest.DonorID
	toDonor.Message = fmt.Sprintf("Your donation for the %s request at %s is now %s", req.BloodGroup, req.HospitalName, status)
	c.notify(toDonor)

	toOwner := ev
	toOwner.AudienceID = req.RecipientID
	toOwner.Message = fmt.Sprintf("A donation for your %s blood request is now %s", req.BloodGroup, status)
	c.notify(toOwner)

	return updated, nil
}

// partiesOf works out how the caller relates to the interest. The caller's
// profile is only read when an admin could make the move.
func (c *Coordinator) partiesOf(ctx context.Context, callerID string, in *domain.DonationInterest, req *domain.BloodRequest, allowed domain.Party) (domain.Party, error) {
	var p domain.Party
	if callerID == in.DonorID {
		p |= domain.PartyDonor
	}
	if req.OwnedBy(callerID) {
		p |= domain.PartyOwner
	}
	if p.Has(allowed) || !allowed.Has(domain.PartyAdmin) {
		return p, nil
	}

	caller, err := c.loadProfile(ctx, callerID)
	if err != nil {
		if isNotFound(err) {
			return p, nil
		}
		return p, err
	}
	if caller.Role.IsOperator() {
		p |= domain.PartyAdmin
	}
	return p, nil
}

func displayName(p *domain.Profile) string {
	if p.FullName != "" {
		return p.FullName
	}
	return "A donor"
}
