package repository

import (
	"context"
	"time"

	"github.com/deskhive/deskhive/internal/domain"
)

const (
	roomByIDKeyPrefix = "room:id:"
	activeRoomsKey    = "rooms:active"
	roomCacheTTL      = 5 * time.Minute
)

// CachedRoomRepository wraps MongoRoomRepository with Redis caching.
// Rooms change rarely but are read on every availability check.
type CachedRoomRepository struct {
	mongo *MongoRoomRepository
	cache *RedisCacheRepository
}

// NewCachedRoomRepository creates a new cached room repository
func NewCachedRoomRepository(mongo *MongoRoomRepository, cache *RedisCacheRepository) *CachedRoomRepository {
	return &CachedRoomRepository{
		mongo: mongo,
		cache: cache,
	}
}

// Create creates a room and invalidates the active room listing
func (r *CachedRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := r.mongo.Create(ctx, room); err != nil {
		return err
	}
	_ = r.cache.Delete(ctx, activeRoomsKey)
	return nil
}

// GetByID retrieves a room by ID with caching
func (r *CachedRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	key := roomByIDKeyPrefix + id

	var room domain.Room
	if err := r.cache.Get(ctx, key, &room); err == nil {
		return &room, nil
	}

	result, err := r.mongo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Store in cache (ignore cache errors)
	_ = r.cache.Set(ctx, key, result, roomCacheTTL)

	return result, nil
}

// ListActive retrieves all active rooms with caching
func (r *CachedRoomRepository) ListActive(ctx context.Context) ([]*domain.Room, error) {
	var rooms []*domain.Room
	if err := r.cache.Get(ctx, activeRoomsKey, &rooms); err == nil {
		return rooms, nil
	}

	result, err := r.mongo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	_ = r.cache.Set(ctx, activeRoomsKey, result, roomCacheTTL)

	return result, nil
}
