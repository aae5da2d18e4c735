package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// Dashboard builds the landing view for the caller's role.
func (c *Coordinator) Dashboard(ctx context.Context, callerID string) (_ *ports.Dashboard, err error) {
	ctx, end := c.observe(ctx, "Dashboard", attribute.String("principal.id", callerID))
	defer func() { end(err) }()

	p, err := c.loadProfile(ctx, callerID)
	if err != nil {
		return nil, err
	}

	d := &ports.Dashboard{Profile: p}
	switch p.Role {
	case domain.RoleDonor:
		err = c.donorDashboard(ctx, p, d)
	case domain.RoleRecipient:
		err = c.recipientDashboard(ctx, p, d)
	case domain.RoleAdmin:
		err = c.adminDashboard(ctx, d)
	default:
		err = fmt.Errorf("%w: unknown role %q", domain.ErrRoleViolation, p.Role)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c *Coordinator) donorDashboard(ctx context.Context, p *domain.Profile, d *ports.Dashboard) error {
	d.OpenRequests = []*domain.BloodRequest{}
	if p.BloodGroup.Valid() {
		reqs, err := c.requests.ListOpenByBloodGroup(ctx, p.BloodGroup)
		if err != nil {
			return storeFault("list open requests", err)
		}
		domain.SortByPriority(reqs)
		d.OpenRequests = reqs
	}

	interests, err := c.interests.ListByDonor(ctx, p.ID)
	if err != nil {
		return storeFault("list donor interests", err)
	}
	d.MyInterests = interests
	return nil
}

func (c *Coordinator) recipientDashboard(ctx context.Context, p *domain.Profile, d *ports.Dashboard) error {
	reqs, err := c.requests.ListByRecipient(ctx, p.ID)
	if err != nil {
		return storeFault("list recipient requests", err)
	}
	domain.SortNewestFirst(reqs)

	perRequest := make([][]*domain.DonationInterest, len(reqs))
	var donorIDs []string
	for i, r := range reqs {
		interests, err := c.interests.ListByRequest(ctx, r.ID)
		if err != nil {
			return storeFault("list request interests", err)
		}
		perRequest[i] = interests
		for _, in := range interests {
			donorIDs = append(donorIDs, in.DonorID)
		}
	}
	donors, err := c.profilesByID(ctx, donorIDs)
	if err != nil {
		return err
	}

	d.MyRequests = make([]ports.RequestWithInterests, len(reqs))
	for i, r := range reqs {
		d.MyRequests[i] = ports.RequestWithInterests{Request: r, Interests: donorViews(perRequest[i], donors)}
	}
	return nil
}

func (c *Coordinator) adminDashboard(ctx context.Context, d *ports.Dashboard) error {
	profiles, err := c.profiles.List(ctx)
	if err != nil {
		return storeFault("list profiles", err)
	}
	reqs, err := c.requests.ListAll(ctx)
	if err != nil {
		return storeFault("list requests", err)
	}
	stats := computeStats(profiles, reqs)
	d.Stats = &stats
	return nil
}

func computeStats(profiles []*domain.Profile, reqs []*domain.BloodRequest) ports.DashboardStats {
	s := ports.DashboardStats{TotalUsers: len(profiles)}
	for _, p := range profiles {
		switch p.Role {
		case domain.RoleDonor:
			s.TotalDonors++
			if p.IsAvailable {
				s.AvailableDonors++
			}
		case domain.RoleRecipient:
			s.TotalRecipients++
		}
	}
	for _, r := range reqs {
		if r.Status != domain.RequestOpen {
			continue
		}
		s.ActiveRequests++
		if r.Urgency == domain.UrgencyCritical {
			s.CriticalRequests++
		}
	}
	return s
}
