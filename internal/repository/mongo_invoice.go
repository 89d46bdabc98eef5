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

// MongoInvoiceRepository implements domain.InvoiceRepository.
type MongoInvoiceRepository struct {
	collection *mongo.Collection
}

func NewMongoInvoiceRepository(db *mongo.Database) *MongoInvoiceRepository {
	return &MongoInvoiceRepository{collection: db.Collection("invoices")}
}

func (r *MongoInvoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) (*domain.Invoice, error) {
	if err := invoice.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	invoice.ID = primitive.NewObjectID().Hex()

	if _, err := r.collection.InsertOne(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return invoice, nil
}

func (r *MongoInvoiceRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	if err := r.collection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&invoice); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &invoice, nil
}

func (r *MongoInvoiceRepository) UpdateStatusByExternalID(ctx context.Context, externalID, status string) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"external_id": externalID}, update)
	if err != nil {
		return fmt.Errorf("failed to update invoice status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CancelByGroup closes every invoice record belonging to the group.
func (r *MongoInvoiceRepository) CancelByGroup(ctx context.Context, groupID string) error {
	update := bson.M{"$set": bson.M{"status": domain.InvoiceStatusCancelled, "updated_at": time.Now().UTC()}}
	if _, err := r.collection.UpdateMany(ctx, bson.M{"group_id": groupID}, update); err != nil {
		return fmt.Errorf("failed to cancel invoices: %w", err)
	}
	return nil
}

func (r *MongoInvoiceRepository) DeleteByGroup(ctx context.Context, groupID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"group_id": groupID}); err != nil {
		return fmt.Errorf("failed to delete invoices: %w", err)
	}
	return nil
}
