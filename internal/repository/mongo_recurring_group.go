package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/deskhive/deskhive/internal/domain"
)

// MongoRecurringGroupRepository implements domain.RecurringGroupRepository.
type MongoRecurringGroupRepository struct {
	collection *mongo.Collection
}

func NewMongoRecurringGroupRepository(db *mongo.Database) *MongoRecurringGroupRepository {
	return &MongoRecurringGroupRepository{collection: db.Collection("recurring_booking_groups")}
}

func (r *MongoRecurringGroupRepository) Create(ctx context.Context, group *domain.RecurringBookingGroup) (*domain.RecurringBookingGroup, error) {
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	group.ID = primitive.NewObjectID().Hex()

	if _, err := r.collection.InsertOne(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create recurring group: %w", err)
	}
	return group, nil
}

func (r *MongoRecurringGroupRepository) GetByID(ctx context.Context, id string) (*domain.RecurringBookingGroup, error) {
	var group domain.RecurringBookingGroup
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recurring group: %w", err)
	}
	return &group, nil
}

func (r *MongoRecurringGroupRepository) Update(ctx context.Context, group *domain.RecurringBookingGroup) error {
	group.UpdatedAt = time.Now().UTC()
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": group.ID}, group)
	if err != nil {
		return fmt.Errorf("failed to update recurring group: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoRecurringGroupRepository) ListByUser(ctx context.Context, userID string) ([]*domain.RecurringBookingGroup, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring groups: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []*domain.RecurringBookingGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode recurring groups: %w", err)
	}
	return groups, nil
}

func (r *MongoRecurringGroupRepository) ListActiveOpenEnded(ctx context.Context) ([]*domain.RecurringBookingGroup, error) {
	filter := bson.M{
		"status":        domain.GroupStatusActive,
		"is_open_ended": true,
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list open-ended groups: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []*domain.RecurringBookingGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode recurring groups: %w", err)
	}
	return groups, nil
}

func (r *MongoRecurringGroupRepository) FindByBucketInvoiceID(ctx context.Context, externalInvoiceID string) (*domain.RecurringBookingGroup, error) {
	filter := bson.M{"monthly_bookings.external_invoice_id": externalInvoiceID}
	var group domain.RecurringBookingGroup
	if err := r.collection.FindOne(ctx, filter).Decode(&group); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group by invoice: %w", err)
	}
	return &group, nil
}

func (r *MongoRecurringGroupRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete recurring group: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
