package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tickethaus/raffle-backend/internal/models"
	"github.com/tickethaus/raffle-backend/internal/repositories"
)

// EventRepository implements the repositories.EventRepository interface
type EventRepository struct {
	collection *mongo.Collection
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *mongo.Database) repositories.EventRepository {
	return &EventRepository{
		collection: db.Collection("raffle_events"),
	}
}

// Create appends a new audit log entry
func (r *EventRepository) Create(ctx context.Context, event *models.RaffleEvent) error {
	event.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// FindByRaffleID finds events for one raffle with pagination
func (r *EventRepository) FindByRaffleID(ctx context.Context, raffleID uint64, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(ctx, bson.M{"raffleId": raffleID}, page, limit)
}

// FindByAccount finds events touching one account with pagination
func (r *EventRepository) FindByAccount(ctx context.Context, account string, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(ctx, bson.M{"account": account}, page, limit)
}

// FindByType finds events of one notification type with pagination
func (r *EventRepository) FindByType(ctx context.Context, eventType string, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(ctx, bson.M{"type": eventType}, page, limit)
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.RaffleEvent, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"occurredAt": -1}) // Newest events first

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []*models.RaffleEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count counts all audit log entries
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
