package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tickethaus/raffle-backend/internal/models"
	"github.com/tickethaus/raffle-backend/internal/repositories"
)

// RaffleRecordRepository implements the repositories.RaffleRecordRepository interface
type RaffleRecordRepository struct {
	collection *mongo.Collection
}

// NewRaffleRecordRepository creates a new RaffleRecordRepository
func NewRaffleRecordRepository(db *mongo.Database) repositories.RaffleRecordRepository {
	return &RaffleRecordRepository{
		collection: db.Collection("raffles"),
	}
}

// Upsert writes the snapshot keyed by its ledger raffle id
func (r *RaffleRecordRepository) Upsert(ctx context.Context, record *models.RaffleRecord) error {
	record.UpdatedAt = time.Now()
	update := bson.M{
		"$set":         record,
		"$setOnInsert": bson.M{"insertedAt": time.Now()},
	}
	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx, bson.M{"raffleId": record.RaffleID}, update, opts)
	return err
}

// FindByRaffleID finds a raffle snapshot by its ledger raffle id
func (r *RaffleRecordRepository) FindByRaffleID(ctx context.Context, raffleID uint64) (*models.RaffleRecord, error) {
	var record models.RaffleRecord
	err := r.collection.FindOne(ctx, bson.M{"raffleId": raffleID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByStatus finds raffle snapshots by status with pagination
func (r *RaffleRecordRepository) FindByStatus(ctx context.Context, status string, page, limit int) ([]*models.RaffleRecord, error) {
	return r.find(ctx, bson.M{"status": status}, page, limit)
}

// FindAll finds all raffle snapshots with pagination
func (r *RaffleRecordRepository) FindAll(ctx context.Context, page, limit int) ([]*models.RaffleRecord, error) {
	return r.find(ctx, bson.M{}, page, limit)
}

func (r *RaffleRecordRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]*models.RaffleRecord, error) {
	opts := options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(bson.M{"raffleId": -1}) // Newest raffles first

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.RaffleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Count counts all raffle snapshots
func (r *RaffleRecordRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}
