package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lifelink/coordination-api/internal/core/domain"
)

var validate = validator.New()

// GetProfile returns the principal's profile.
func (c *Coordinator) GetProfile(ctx context.Context, principalID string) (_ *domain.Profile, err error) {
	ctx, end := c.observe(ctx, "GetProfile", attribute.String("principal.id", principalID))
	defer func() { end(err) }()

	return c.loadProfile(ctx, principalID)
}

// UpdateProfile applies an owner's partial update. Role changes are rejected;
// availability is coerced to false for anyone who is not a donor. A new email
// is also applied to the account's sign-in credentials.
func (c *Coordinator) UpdateProfile(ctx context.Context, principalID string, patch domain.ProfilePatch) (_ *domain.Profile, err error) {
	ctx, end := c.observe(ctx, "UpdateProfile", attribute.String("principal.id", principalID))
	defer func() { end(err) }()

	p, err := c.loadProfile(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		patch.Email = &email
	}
	if err := validatePatch(p, patch); err != nil {
		return nil, err
	}

	oldEmail := p.Email
	p.Apply(patch, c.now())
	emailChanged := p.Email != oldEmail
	if emailChanged {
		if err := c.syncLoginEmail(ctx, p.ID, p.Email); err != nil {
			return nil, err
		}
	}
	if err := c.profiles.Update(ctx, p); err != nil {
		if emailChanged {
			// Put the sign-in email back so both collections still agree.
			if revErr := c.logins.UpdateEmail(context.WithoutCancel(ctx), p.ID, oldEmail); revErr != nil && !errors.Is(revErr, domain.ErrUserNotFound) {
				c.log.Error().Err(revErr).Str("principal_id", principalID).Msg("failed to restore sign-in email")
			}
		}
		return nil, storeFault("update profile", err)
	}

	c.log.Info().Str("principal_id", principalID).Str("role", string(p.Role)).Msg("profile updated")
	return p, nil
}

// syncLoginEmail moves the sign-in email to the new address. Profiles with no
// credentials of their own have nothing to sync.
func (c *Coordinator) syncLoginEmail(ctx context.Context, userID, email string) error {
	err := c.logins.UpdateEmail(ctx, userID, email)
	switch {
	case err == nil, errors.Is(err, domain.ErrUserNotFound):
		return nil
	case errors.Is(err, domain.ErrUserExists):
		return domain.Invalid("email", "is already in use")
	default:
		return storeFault("update sign-in email", err)
	}
}

func validatePatch(current *domain.Profile, patch domain.ProfilePatch) error {
	if patch.Role != nil && *patch.Role != current.Role {
		return fmt.Errorf("%w: role cannot be changed", domain.ErrRoleViolation)
	}
	if patch.FullName != nil && strings.TrimSpace(*patch.FullName) == "" {
		return domain.Invalid("full_name", "must not be blank")
	}
	if patch.Email != nil && validate.Var(*patch.Email, "required,email") != nil {
		return domain.Invalid("email", "must be a valid email")
	}
	if patch.Phone != nil && strings.TrimSpace(*patch.Phone) == "" {
		return domain.Invalid("phone", "must not be blank")
	}
	if patch.BloodGroup != nil && !patch.BloodGroup.Valid() {
		return domain.Invalid("blood_group", "must be one of A+ A- B+ B- AB+ AB- O+ O-")
	}
	return nil
}

// ListProfiles returns every profile. Admin only.
func (c *Coordinator) ListProfiles(ctx context.Context, callerID string) (_ []*domain.Profile, err error) {
	ctx, end := c.observe(ctx, "ListProfiles")
	defer func() { end(err) }()

	if err := c.requireOperator(ctx, callerID); err != nil {
		return nil, err
	}
	profiles, err := c.profiles.List(ctx)
	if err != nil {
		return nil, storeFault("list profiles", err)
	}
	return profiles, nil
}
