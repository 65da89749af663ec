// Package memory provides in-memory repository implementations for tests and
// for running the server without a MongoDB instance.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tickethaus/raffle-backend/internal/models"
	"github.com/tickethaus/raffle-backend/internal/repositories"
)

// RaffleRecordRepository is an in-memory repositories.RaffleRecordRepository.
type RaffleRecordRepository struct {
	mu      sync.RWMutex
	records map[uint64]*models.RaffleRecord
}

// NewRaffleRecordRepository creates an empty in-memory snapshot store.
func NewRaffleRecordRepository() *RaffleRecordRepository {
	return &RaffleRecordRepository{records: make(map[uint64]*models.RaffleRecord)}
}

func (r *RaffleRecordRepository) Upsert(ctx context.Context, record *models.RaffleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	clone.UpdatedAt = time.Now()
	r.records[record.RaffleID] = &clone
	return nil
}

func (r *RaffleRecordRepository) FindByRaffleID(ctx context.Context, raffleID uint64) (*models.RaffleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[raffleID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *RaffleRecordRepository) FindByStatus(ctx context.Context, status string, page, limit int) ([]*models.RaffleRecord, error) {
	return r.find(func(record *models.RaffleRecord) bool {
		return string(record.Status) == status
	}, page, limit)
}

func (r *RaffleRecordRepository) FindAll(ctx context.Context, page, limit int) ([]*models.RaffleRecord, error) {
	return r.find(func(*models.RaffleRecord) bool { return true }, page, limit)
}

func (r *RaffleRecordRepository) find(match func(*models.RaffleRecord) bool, page, limit int) ([]*models.RaffleRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*models.RaffleRecord
	for _, record := range r.records {
		if match(record) {
			clone := *record
			all = append(all, &clone)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RaffleID > all[j].RaffleID })
	return paginate(all, page, limit), nil
}

func (r *RaffleRecordRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.records)), nil
}

// EventRepository is an in-memory repositories.EventRepository.
type EventRepository struct {
	mu     sync.RWMutex
	events []*models.RaffleEvent
}

// NewEventRepository creates an empty in-memory audit log.
func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) Create(ctx context.Context, event *models.RaffleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *event
	clone.CreatedAt = time.Now()
	r.events = append(r.events, &clone)
	return nil
}

func (r *EventRepository) FindByRaffleID(ctx context.Context, raffleID uint64, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(func(e *models.RaffleEvent) bool { return e.RaffleID == raffleID }, page, limit)
}

func (r *EventRepository) FindByAccount(ctx context.Context, account string, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(func(e *models.RaffleEvent) bool { return e.Account == account }, page, limit)
}

func (r *EventRepository) FindByType(ctx context.Context, eventType string, page, limit int) ([]*models.RaffleEvent, error) {
	return r.find(func(e *models.RaffleEvent) bool { return string(e.Type) == eventType }, page, limit)
}

func (r *EventRepository) find(match func(*models.RaffleEvent) bool, page, limit int) ([]*models.RaffleEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*models.RaffleEvent
	// Newest first, matching the sort the MongoDB implementation uses.
	for i := len(r.events) - 1; i >= 0; i-- {
		if match(r.events[i]) {
			clone := *r.events[i]
			all = append(all, &clone)
		}
	}
	return paginate(all, page, limit), nil
}

func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.events)), nil
}

// AdminUserRepository is an in-memory repositories.AdminUserRepository.
type AdminUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.AdminUser
}

// NewAdminUserRepository creates an empty in-memory operator store.
func NewAdminUserRepository() *AdminUserRepository {
	return &AdminUserRepository{users: make(map[primitive.ObjectID]*models.AdminUser)}
}

func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *AdminUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *AdminUserRepository) Update(ctx context.Context, user *models.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *AdminUserRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func paginate[T any](all []T, page, limit int) []T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return all
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
