package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tickethaus/raffle-backend/internal/models"
)

// ErrNotFound is returned by every repository when a lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// RaffleRecordRepository defines the interface for raffle snapshot persistence
type RaffleRecordRepository interface {
	Upsert(ctx context.Context, record *models.RaffleRecord) error
	FindByRaffleID(ctx context.Context, raffleID uint64) (*models.RaffleRecord, error)
	FindByStatus(ctx context.Context, status string, page, limit int) ([]*models.RaffleRecord, error)
	FindAll(ctx context.Context, page, limit int) ([]*models.RaffleRecord, error)
	Count(ctx context.Context) (int64, error)
}

// EventRepository defines the interface for the append-only raffle audit log
type EventRepository interface {
	Create(ctx context.Context, event *models.RaffleEvent) error
	FindByRaffleID(ctx context.Context, raffleID uint64, page, limit int) ([]*models.RaffleEvent, error)
	FindByAccount(ctx context.Context, account string, page, limit int) ([]*models.RaffleEvent, error)
	FindByType(ctx context.Context, eventType string, page, limit int) ([]*models.RaffleEvent, error)
	Count(ctx context.Context) (int64, error)
}

// AdminUserRepository defines the interface for operator account storage
type AdminUserRepository interface {
	Create(ctx context.Context, user *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
	Update(ctx context.Context, user *models.AdminUser) error
	Count(ctx context.Context) (int64, error)
}
