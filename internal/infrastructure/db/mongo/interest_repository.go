package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lifelink/coordination-api/internal/core/domain"
	"github.com/lifelink/coordination-api/internal/core/ports"
)

const collectionInterests = "donation_interests"

type InterestRepository struct {
	col *mongo.Collection
}

var _ ports.InterestRepository = (*InterestRepository)(nil)

func NewInterestRepository(db *mongo.Database) *InterestRepository {
	return &InterestRepository{col: db.Collection(collectionInterests)}
}

// Create inserts an interest. The partial unique index on active
// (donor_id, request_id) pairs turns a concurrent second insert into
// ErrDuplicateInterest.
func (r *InterestRepository) Create(ctx context.Context, in *domain.DonationInterest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	in.Active = in.Status.Active()
	if _, err := r.col.InsertOne(ctx, in); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateInterest
		}
		return fmt.Errorf("insert donation interest: %w", err)
	}
	return nil
}

func (r *InterestRepository) FindByID(ctx context.Context, id string) (*domain.DonationInterest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *InterestRepository) FindActive(ctx context.Context, donorID, requestID string) (*domain.DonationInterest, error) {
	return r.findOne(ctx, bson.M{"donor_id": donorID, "request_id": requestID, "active": true})
}

func (r *InterestRepository) findOne(ctx context.Context, filter bson.M) (*domain.DonationInterest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var in domain.DonationInterest
	if err := r.col.FindOne(ctx, filter).Decode(&in); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrInterestNotFound
		}
		return nil, fmt.Errorf("find donation interest: %w", err)
	}
	return &in, nil
}

func (r *InterestRepository) ListByRequest(ctx context.Context, requestID string) ([]*domain.DonationInterest, error) {
	return r.find(ctx, bson.M{"request_id": requestID}, bson.D{{Key: "created_at", Value: 1}})
}

func (r *InterestRepository) ListByDonor(ctx context.Context, donorID string) ([]*domain.DonationInterest, error) {
	return r.find(ctx, bson.M{"donor_id": donorID}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *InterestRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.DonationInterest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list donation interests: %w", err)
	}
	return collect[domain.DonationInterest](ctx, cur)
}

// UpdateStatus is a compare-and-set on the current status. Leaving the
// active set (cancelled) frees the donor to express interest again.
func (r *InterestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.InterestStatus, at time.Time) (*domain.DonationInterest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{
		"status":     to,
		"active":     to.Active(),
		"updated_at": at.UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var in domain.DonationInterest
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&in); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w (interest %s is no longer %s)", domain.ErrInvalidTransition, id, from)
		}
		return nil, fmt.Errorf("update donation interest status: %w", err)
	}
	return &in, nil
}

func (r *InterestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "request_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_donor_request").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "request_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "donor_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}
