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

const collectionRequests = "blood_requests"

type RequestRepository struct {
	col *mongo.Collection
}

var _ ports.RequestRepository = (*RequestRepository)(nil)

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{col: db.Collection(collectionRequests)}
}

// Create inserts a new blood request document. The urgency rank is stored
// alongside the label so the database can sort by it.
func (r *RequestRepository) Create(ctx context.Context, req *domain.BloodRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req.UrgencyRank = req.Urgency.Rank()
	if _, err := r.col.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.BloodRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.BloodRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if isNoDocuments(err) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find blood request: %w", err)
	}
	return &req, nil
}

func (r *RequestRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*domain.BloodRequest, error) {
	return r.find(ctx, bson.M{"recipient_id": recipientID}, bson.D{{Key: "created_at", Value: -1}})
}

// ListOpenByBloodGroup returns open requests for a group, most urgent first
// and oldest first within the same urgency.
func (r *RequestRepository) ListOpenByBloodGroup(ctx context.Context, group domain.BloodGroup) ([]*domain.BloodRequest, error) {
	return r.find(ctx,
		bson.M{"status": domain.RequestOpen, "blood_group": group},
		bson.D{{Key: "urgency_rank", Value: -1}, {Key: "created_at", Value: 1}},
	)
}

func (r *RequestRepository) ListAll(ctx context.Context) ([]*domain.BloodRequest, error) {
	return r.find(ctx, bson.M{}, bson.D{{Key: "created_at", Value: -1}})
}

func (r *RequestRepository) find(ctx context.Context, filter bson.M, sort bson.D) ([]*domain.BloodRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("list blood requests: %w", err)
	}
	return collect[domain.BloodRequest](ctx, cur)
}

// UpdateStatus moves a request from one status to another in a single
// compare-and-set. When the stored status is no longer from, nothing is
// written and ErrInvalidTransition is returned.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RequestStatus, at time.Time) (*domain.BloodRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": from}
	update := bson.M{"$set": bson.M{"status": to, "updated_at": at.UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req domain.BloodRequest
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req); err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w (request %s is no longer %s)", domain.ErrInvalidTransition, id, from)
		}
		return nil, fmt.Errorf("update blood request status: %w", err)
	}
	return &req, nil
}

func (r *RequestRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "blood_group", Value: 1},
			{Key: "urgency_rank", Value: -1},
			{Key: "created_at", Value: 1},
		}},
	})
	return err
}
