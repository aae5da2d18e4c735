package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const (
	minPasswordLen     = 8
	maxTrackedLimiters = 10_000
)

// AuthService implements registration and login. A profile is created for
// every account, at registration or at the latest on first login.
type AuthService struct {
	repo      ports.AuthRepository
	profiles  ports.ProfileRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger

	loginRate rate.Limit
	burst     int
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
}

// NewAuthService builds the service. loginsPerMinute caps login attempts per
// email address; zero or less disables throttling.
func NewAuthService(
	repo ports.AuthRepository,
	profiles ports.ProfileRepository,
	jwtSecret string,
	tokenTTL time.Duration,
	loginsPerMinute int,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	s := &AuthService{
		repo:      repo,
		profiles:  profiles,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		loginRate: rate.Inf,
		limiters:  make(map[string]*rate.Limiter),
	}
	if loginsPerMinute > 0 {
		s.loginRate = rate.Every(time.Minute / time.Duration(loginsPerMinute))
		s.burst = loginsPerMinute
	}
	return s
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || len(in.Password) < minPasswordLen || strings.TrimSpace(in.FullName) == "" {
		return nil, domain.ErrInvalidCredentials
	}
	if validate.Var(email, "email") != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !in.Role.SelfRegistrable() {
		return nil, domain.ErrInvalidCredentials
	}
	return s.createAccount(ctx, email, in.Password, in.FullName, in.Phone, in.Role)
}

// EnsureAdmin provisions the operator account when it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}
	_, err := s.createAccount(ctx, email, password, "Administrator", "", domain.RoleAdmin)
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	return err
}

func (s *AuthService) createAccount(ctx context.Context, email, password, fullName, phone string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:        created.ID,
		FullName:  strings.TrimSpace(fullName),
		Email:     created.Email,
		Role:      created.Role,
		Phone:     strings.TrimSpace(phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		// Login recreates the profile, so the account stays usable.
		s.log.Warn().Err(err).Str("user_id", created.ID).Msg("profile creation deferred to first login")
	}

	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Msg("account registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if !s.limiter(email).Allow() {
		return "", nil, domain.ErrTooManyAttempts
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	if err := s.ensureProfile(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// ensureProfile creates the principal's profile on first authentication.
func (s *AuthService) ensureProfile(ctx context.Context, user *domain.User) error {
	_, err := s.profiles.FindByID(ctx, user.ID)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	now := time.Now().UTC()
	return s.profiles.Create(ctx, &domain.Profile{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *AuthService) limiter(email string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[email]
	if !ok {
		if len(s.limiters) >= maxTrackedLimiters {
			s.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(s.loginRate, s.burst)
		s.limiters[email] = l
	}
	return l
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
