package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubProfileRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Profile
	createErr error
	findErr   error
	updateErr error
	finds     map[string]int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byID: make(map[string]*domain.Profile), finds: make(map[string]int)}
}

func (r *stubProfileRepo) Create(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	clone := *p
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProfileRepo) FindByID(_ context.Context, id string) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds[id]++
	if r.findErr != nil {
		return nil, r.findErr
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubProfileRepo) Update(_ context.Context, p *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.byID[p.ID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	// Mirrors the real store: role is never written by an update.
	clone := *p
	clone.Role = stored.Role
	r.byID[p.ID] = &clone
	return nil
}

func (r *stubProfileRepo) List(_ context.Context) ([]*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Profile, 0, len(r.byID))
	for _, p := range r.byID {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

type stubRequestRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.BloodRequest
	listErr error
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{byID: make(map[string]*domain.BloodRequest)}
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.BloodRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *req
	r.byID[req.ID] = &clone
	return nil
}

func (r *stubRequestRepo) FindByID(_ context.Context, id string) (*domain.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	clone := *req
	return &clone, nil
}

// filter returns matches in map order; callers are expected to sort.
func (r *stubRequestRepo) filter(keep func(*domain.BloodRequest) bool) ([]*domain.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.BloodRequest
	for _, req := range r.byID {
		if keep(req) {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubRequestRepo) ListByRecipient(_ context.Context, recipientID string) ([]*domain.BloodRequest, error) {
	return r.filter(func(req *domain.BloodRequest) bool { return req.RecipientID == recipientID })
}

func (r *stubRequestRepo) ListOpenByBloodGroup(_ context.Context, group domain.BloodGroup) ([]*domain.BloodRequest, error) {
	return r.filter(func(req *domain.BloodRequest) bool {
		return req.Status == domain.RequestOpen && req.BloodGroup == group
	})
}

func (r *stubRequestRepo) ListAll(_ context.Context) ([]*domain.BloodRequest, error) {
	return r.filter(func(*domain.BloodRequest) bool { return true })
}

func (r *stubRequestRepo) UpdateStatus(_ context.Context, id string, from, to domain.RequestStatus, at time.Time) (*domain.BloodRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.byID[id]
	if !ok || req.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	req.Status = to
	req.UpdatedAt = at
	clone := *req
	return &clone, nil
}

type stubInterestRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.DonationInterest
	createErr error
}

func newStubInterestRepo() *stubInterestRepo {
	return &stubInterestRepo{byID: make(map[string]*domain.DonationInterest)}
}

// Create enforces the same (donor, request) uniqueness over active rows as
// the partial unique index in MongoDB.
func (r *stubInterestRepo) Create(_ context.Context, in *domain.DonationInterest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.Active && existing.DonorID == in.DonorID && existing.RequestID == in.RequestID {
			return domain.ErrDuplicateInterest
		}
	}
	clone := *in
	r.byID[in.ID] = &clone
	return nil
}

func (r *stubInterestRepo) FindByID(_ context.Context, id string) (*domain.DonationInterest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrInterestNotFound
	}
	clone := *in
	return &clone, nil
}

func (r *stubInterestRepo) FindActive(_ context.Context, donorID, requestID string) (*domain.DonationInterest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, in := range r.byID {
		if in.Active && in.DonorID == donorID && in.RequestID == requestID {
			clone := *in
			return &clone, nil
		}
	}
	return nil, domain.ErrInterestNotFound
}

func (r *stubInterestRepo) list(keep func(*domain.DonationInterest) bool) []*domain.DonationInterest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DonationInterest
	for _, in := range r.byID {
		if keep(in) {
			clone := *in
			out = append(out, &clone)
		}
	}
	return out
}

func (r *stubInterestRepo) ListByRequest(_ context.Context, requestID string) ([]*domain.DonationInterest, error) {
	return r.list(func(in *domain.DonationInterest) bool { return in.RequestID == requestID }), nil
}

func (r *stubInterestRepo) ListByDonor(_ context.Context, donorID string) ([]*domain.DonationInterest, error) {
	return r.list(func(in *domain.DonationInterest) bool { return in.DonorID == donorID }), nil
}

func (r *stubInterestRepo) UpdateStatus(_ context.Context, id string, from, to domain.InterestStatus, at time.Time) (*domain.DonationInterest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.byID[id]
	if !ok || in.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	in.Status = to
	in.Active = to.Active()
	in.UpdatedAt = at
	clone := *in
	return &clone, nil
}

// stubLogins stands in for the credentials store's email column.
type stubLogins struct {
	mu      sync.Mutex
	byID    map[string]string
	failErr error
}

func newStubLogins() *stubLogins {
	return &stubLogins{byID: make(map[string]string)}
}

func (l *stubLogins) UpdateEmail(_ context.Context, userID, email string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failErr != nil {
		return l.failErr
	}
	if _, ok := l.byID[userID]; !ok {
		return domain.ErrUserNotFound
	}
	for id, e := range l.byID {
		if e == email && id != userID {
			return domain.ErrUserExists
		}
	}
	l.byID[userID] = email
	return nil
}

func (l *stubLogins) email(userID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byID[userID]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.WorkflowEvent
}

func (p *recordingPublisher) Publish(ev domain.WorkflowEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) to(audienceID string) []domain.WorkflowEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.WorkflowEvent
	for _, ev := range p.events {
		if ev.AudienceID == audienceID {
			out = append(out, ev)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

var (
	discardLogger = zerolog.Nop()
	baseTime      = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc       *Coordinator
	profiles  *stubProfileRepo
	requests  *stubRequestRepo
	interests *stubInterestRepo
	logins    *stubLogins
	events    *recordingPublisher

	mu    sync.Mutex
	ticks int
	ids   int
}

func newFixture() *fixture {
	f := &fixture{
		profiles:  newStubProfileRepo(),
		requests:  newStubRequestRepo(),
		interests: newStubInterestRepo(),
		logins:    newStubLogins(),
		events:    &recordingPublisher{},
	}
	f.svc = NewCoordinator(f.profiles, f.requests, f.interests, f.logins, nil, f.events, discardLogger)
	// Every read of the clock moves it forward one second so creation order is observable.
	f.svc.now = func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.ticks++
		return baseTime.Add(time.Duration(f.ticks) * time.Second)
	}
	f.svc.newID = func() string {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.ids++
		return fmt.Sprintf("id-%03d", f.ids)
	}
	return f
}

func (f *fixture) addProfile(id string, role domain.Role, group domain.BloodGroup) *domain.Profile {
	p := &domain.Profile{
		ID:         id,
		FullName:   "User " + id,
		Email:      id + "@example.com",
		Role:       role,
		BloodGroup: group,
		CreatedAt:  baseTime,
		UpdatedAt:  baseTime,
	}
	_ = f.profiles.Create(context.Background(), p)
	f.logins.mu.Lock()
	f.logins.byID[id] = p.Email
	f.logins.mu.Unlock()
	return p
}

func validRequestInput(group domain.BloodGroup, urgency domain.Urgency, units int) ports.CreateRequestInput {
	return ports.CreateRequestInput{
		BloodGroup:      group,
		UnitsNeeded:     units,
		Urgency:         urgency,
		HospitalName:    "St. Mary's",
		HospitalAddress: "1 Main St",
		ContactPhone:    "+1-555-0100",
		NeededBy:        baseTime.Add(72 * time.Hour),
	}
}

func (f *fixture) mustCreateRequest(t *testing.T, recipientID string, group domain.BloodGroup, urgency domain.Urgency) *domain.BloodRequest {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), recipientID, validRequestInput(group, urgency, 1))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	return req
}
