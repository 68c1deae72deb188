package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"

	"github.com/jinzhu/gorm"
)

// ErrRestaurantNotFound is returned when no restaurant matches the id
var ErrRestaurantNotFound = errors.New("restaurant not found")

// GormStore implements the engine's read-only Store interface on gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm connection as an engine store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Restaurant loads a restaurant by id
func (s *GormStore) Restaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.Where("id = ?", id).First(&restaurant).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("failed to query restaurant %d: %w", id, err)
	}
	return &restaurant, nil
}

// MenuItems loads the full menu for a restaurant
func (s *GormStore) MenuItems(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := s.db.Where("restaurant_id = ?", restaurantID).Order("category, name").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	return items, nil
}

// ActiveSession returns the active session for a table, or nil when the
// table has no open session
func (s *GormStore) ActiveSession(ctx context.Context, restaurantID uint, tableNumber int) (*models.TableSession, error) {
	var session models.TableSession
	err := s.db.Where("restaurant_id = ? AND table_number = ? AND status = ?",
		restaurantID, tableNumber, string(models.SessionStatusActive)).
		Order("created_at DESC").First(&session).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return &session, nil
}

// RecentOrdersBySession returns a session's orders, most recent first
func (s *GormStore) RecentOrdersBySession(ctx context.Context, sessionID uint, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Items").Where("session_id = ?", sessionID).
		Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to query session orders: %w", err)
	}
	return orders, nil
}

// RecentOrdersByTable returns a table's orders within the window, most
// recent first
func (s *GormStore) RecentOrdersByTable(ctx context.Context, restaurantID uint, tableNumber int, since time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Items").
		Where("restaurant_id = ? AND table_number = ? AND created_at > ?", restaurantID, tableNumber, since).
		Order("created_at DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to query table orders: %w", err)
	}
	return orders, nil
}
