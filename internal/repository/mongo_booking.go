package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/deskhive/deskhive/internal/domain"
)

// MongoBookingRepository implements domain.BookingRepository.
type MongoBookingRepository struct {
	collection *mongo.Collection
}

// NewMongoBookingRepository creates the booking repository. A compound
// index on (room_id, date, time_slot) backs the availability checks.
func NewMongoBookingRepository(db *mongo.Database) *MongoBookingRepository {
	coll := db.Collection("bookings")
	_, err := coll.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}, {Key: "time_slot", Value: 1}},
	})
	if err != nil {
		// Missing index slows the availability lookups but does not
		// break correctness.
		log.Printf("[MongoBookingRepository] index creation failed: %v", err)
	}
	return &MongoBookingRepository{collection: coll}
}

func (r *MongoBookingRepository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	booking.ID = primitive.NewObjectID().Hex()

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return booking, nil
}

func (r *MongoBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *MongoBookingRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*domain.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *MongoBookingRepository) ExistsActive(ctx context.Context, roomID, date string, slot domain.TimeSlot) (bool, error) {
	filter := bson.M{
		"room_id":   roomID,
		"date":      date,
		"time_slot": slot,
		"status":    bson.M{"$ne": domain.BookingStatusCancelled},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking existence: %w", err)
	}
	return count > 0, nil
}

func (r *MongoBookingRepository) UpdateStatusByIDs(ctx context.Context, ids []string, status string) error {
	if len(ids) == 0 {
		return nil
	}
	update := bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}}
	if _, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) UpdatePaymentStatusByIDs(ctx context.Context, ids []string, paymentStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	update := bson.M{"$set": bson.M{"payment_status": paymentStatus, "updated_at": time.Now().UTC()}}
	if _, err := r.collection.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, update); err != nil {
		return fmt.Errorf("failed to update booking payment status: %w", err)
	}
	return nil
}

func (r *MongoBookingRepository) FindByExternalInvoiceID(ctx context.Context, externalInvoiceID string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := r.collection.FindOne(ctx, bson.M{"external_invoice_id": externalInvoiceID}).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking by invoice: %w", err)
	}
	return &booking, nil
}

func (r *MongoBookingRepository) UpdatePaymentStatus(ctx context.Context, id, paymentStatus string) error {
	update := bson.M{"$set": bson.M{"payment_status": paymentStatus, "updated_at": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update booking payment status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *MongoBookingRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("failed to delete bookings: %w", err)
	}
	return nil
}
