// Package commands is the order-commit collaborator: it executes a
// confirmed CandidateAction against the database. The decision engine
// never writes; every mutation funnels through here after the customer
// says yes.
package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maitred/internal/engine"
	"maitred/internal/models"

	"github.com/jinzhu/gorm"
)

// ErrOrderNotPending is returned when a status transition loses the race:
// the order moved out of pending between decision and commit.
var ErrOrderNotPending = errors.New("order is no longer pending")

// ErrNothingToCommit is returned for action types that carry no mutation
var ErrNothingToCommit = errors.New("action does not mutate any order")

// Committer executes confirmed actions
type Committer struct {
	db *gorm.DB
}

// NewCommitter creates a committer
func NewCommitter(db *gorm.DB) *Committer {
	return &Committer{db: db}
}

// Execute applies a confirmed action and returns the affected order.
// Status transitions use compare-and-set on the pending status, so two
// near-simultaneous commits for the same table cannot both win.
func (c *Committer) Execute(ctx context.Context, restaurantID uint, tableNumber int, action *engine.CandidateAction) (*models.Order, error) {
	switch action.Type {
	case engine.ActionAddItem:
		return c.addItems(restaurantID, tableNumber, action)
	case engine.ActionConfirmOrder:
		return c.confirmOrder(restaurantID, tableNumber)
	case engine.ActionRemoveItem:
		return c.removeItems(restaurantID, tableNumber, action)
	case engine.ActionModifyItemQuantity:
		return c.modifyQuantities(restaurantID, tableNumber, action)
	case engine.ActionCancelOrder:
		return c.cancelOrder(restaurantID, tableNumber, action)
	default:
		return nil, fmt.Errorf("%w: %s", ErrNothingToCommit, action.Type)
	}
}

// ensureSession finds or opens the active session for a table
func (c *Committer) ensureSession(restaurantID uint, tableNumber int) (*models.TableSession, error) {
	var session models.TableSession
	err := c.db.Where("restaurant_id = ? AND table_number = ? AND status = ?",
		restaurantID, tableNumber, string(models.SessionStatusActive)).
		Order("created_at DESC").First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	session = models.TableSession{
		RestaurantID: restaurantID,
		TableNumber:  tableNumber,
		Status:       string(models.SessionStatusActive),
	}
	if err := c.db.Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &session, nil
}

// pendingOrder returns the session's pending order, creating one when
// create is set and none exists
func (c *Committer) pendingOrder(session *models.TableSession, restaurantID uint, create bool) (*models.Order, error) {
	var order models.Order
	err := c.db.Preload("Items").
		Where("session_id = ? AND status = ?", session.ID, string(models.OrderStatusPending)).
		Order("created_at DESC").First(&order).Error
	if err == nil {
		return &order, nil
	}
	if !gorm.IsRecordNotFoundError(err) {
		return nil, fmt.Errorf("failed to query pending order: %w", err)
	}
	if !create {
		return nil, ErrOrderNotPending
	}

	order = models.Order{
		RestaurantID: restaurantID,
		SessionID:    session.ID,
		TableNumber:  session.TableNumber,
		Status:       string(models.OrderStatusPending),
		PlacedAt:     time.Now(),
	}
	if err := c.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

func (c *Committer) addItems(restaurantID uint, tableNumber int, action *engine.CandidateAction) (*models.Order, error) {
	session, err := c.ensureSession(restaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.pendingOrder(session, restaurantID, true)
	if err != nil {
		return nil, err
	}

	for _, item := range action.Items {
		line := models.OrderItem{
			OrderID:    order.ID,
			MenuItemID: parseExternalID(item.MenuItemID),
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			LineTotal:  item.LineTotal,
			Notes:      item.Notes,
		}
		if err := c.db.Create(&line).Error; err != nil {
			return nil, fmt.Errorf("failed to add %q to order %d: %w", item.Name, order.ID, err)
		}
		order.Items = append(order.Items, line)
	}

	return order, c.recomputeTotal(order, session)
}

func (c *Committer) removeItems(restaurantID uint, tableNumber int, action *engine.CandidateAction) (*models.Order, error) {
	session, err := c.ensureSession(restaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.pendingOrder(session, restaurantID, false)
	if err != nil {
		return nil, err
	}

	for _, item := range action.Items {
		if err := c.db.Where("order_id = ? AND name = ?", order.ID, item.Name).
			Delete(&models.OrderItem{}).Error; err != nil {
			return nil, fmt.Errorf("failed to remove %q from order %d: %w", item.Name, order.ID, err)
		}
	}

	if err := c.db.Preload("Items").First(order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order %d: %w", order.ID, err)
	}
	return order, c.recomputeTotal(order, session)
}

func (c *Committer) modifyQuantities(restaurantID uint, tableNumber int, action *engine.CandidateAction) (*models.Order, error) {
	session, err := c.ensureSession(restaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.pendingOrder(session, restaurantID, false)
	if err != nil {
		return nil, err
	}

	for _, item := range action.Items {
		updates := map[string]interface{}{
			"quantity":   item.Quantity,
			"line_total": item.LineTotal,
		}
		if err := c.db.Model(&models.OrderItem{}).
			Where("order_id = ? AND name = ?", order.ID, item.Name).
			Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update %q on order %d: %w", item.Name, order.ID, err)
		}
	}

	if err := c.db.Preload("Items").First(order, order.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order %d: %w", order.ID, err)
	}
	return order, c.recomputeTotal(order, session)
}

func (c *Committer) cancelOrder(restaurantID uint, tableNumber int, action *engine.CandidateAction) (*models.Order, error) {
	session, err := c.ensureSession(restaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.pendingOrder(session, restaurantID, false)
	if err != nil {
		return nil, err
	}
	if err := c.transition(order, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	return order, nil
}

// confirmOrder moves the session's pending order into preparation
func (c *Committer) confirmOrder(restaurantID uint, tableNumber int) (*models.Order, error) {
	session, err := c.ensureSession(restaurantID, tableNumber)
	if err != nil {
		return nil, err
	}
	order, err := c.pendingOrder(session, restaurantID, false)
	if err != nil {
		return nil, err
	}
	if err := c.transition(order, models.OrderStatusPreparing); err != nil {
		return nil, err
	}
	return order, nil
}

// SendToKitchen moves a pending order into preparation. Called when the
// customer confirms a placed order is final.
func (c *Committer) SendToKitchen(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := c.db.Preload("Items").First(&order, orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if err := c.transition(&order, models.OrderStatusPreparing); err != nil {
		return nil, err
	}
	return &order, nil
}

// transition performs a compare-and-set status change from pending
func (c *Committer) transition(order *models.Order, to models.OrderStatus) error {
	result := c.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, string(models.OrderStatusPending)).
		Update("status", string(to))
	if result.Error != nil {
		return fmt.Errorf("failed to move order %d to %s: %w", order.ID, to, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrOrderNotPending
	}
	order.Status = string(to)
	return nil
}

// recomputeTotal refreshes the order total and the session running total
func (c *Committer) recomputeTotal(order *models.Order, session *models.TableSession) error {
	var total float64
	for _, it := range order.Items {
		total += it.LineTotal
	}
	order.Total = total
	if err := c.db.Model(order).Update("total", total).Error; err != nil {
		return fmt.Errorf("failed to update order %d total: %w", order.ID, err)
	}
	if err := c.db.Model(session).Update("running_total", total).Error; err != nil {
		return fmt.Errorf("failed to update session %d total: %w", session.ID, err)
	}
	return nil
}

// parseExternalID extracts the numeric suffix of an external id such as
// "menu-item-12"
func parseExternalID(id string) uint {
	idx := strings.LastIndex(id, "-")
	if idx < 0 || idx+1 >= len(id) {
		return 0
	}
	var n uint
	if _, err := fmt.Sscanf(id[idx+1:], "%d", &n); err != nil {
		return 0
	}
	return n
}
