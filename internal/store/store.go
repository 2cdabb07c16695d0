package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/saksaud/physiocare-api/internal/models"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrStoreUnavailable = errors.New("user store unavailable")
)

const connectTimeout = 15 * time.Second

// Store owns the process-wide database handle. The connection is opened
// lazily on the first round-trip; concurrent first users wait on the same
// attempt instead of dialing twice, and a failed attempt is cleared so the
// next request retries.
type Store struct {
	dsn string

	mu sync.Mutex
	db *gorm.DB
}

func New(dsn string) *Store {
	return &Store{dsn: dsn}
}

// NewWithDB wraps an already open handle. Used by tests.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}

	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := gorm.Open(postgres.Open(s.dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := sqlDB.PingContext(dialCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.db = db
	return db, nil
}

// Ping forces the lazy connection open. Callers may ignore the error: every
// operation degrades on its own when the store stays down.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.conn(ctx)
	return err
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &user, nil
}

func (s *Store) Create(ctx context.Context, user *models.User) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// List returns users, optionally restricted to one role. Consumed by the
// admin and doctor dashboard surfaces.
func (s *Store) List(ctx context.Context, role models.Role) ([]models.User, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.WithContext(ctx).Order("created_at")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return users, nil
}
