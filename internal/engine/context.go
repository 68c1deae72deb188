package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maitred/internal/models"
)

// Store is the read-only data access the engine needs to build context.
// The engine never writes; committing a confirmed action is the caller's
// responsibility.
//
// ActiveSession returns (nil, nil) when no active session exists for the
// table. Both order queries return orders most-recent-first.
type Store interface {
	Restaurant(ctx context.Context, id uint) (*models.Restaurant, error)
	MenuItems(ctx context.Context, restaurantID uint) ([]models.MenuItem, error)
	ActiveSession(ctx context.Context, restaurantID uint, tableNumber int) (*models.TableSession, error)
	RecentOrdersBySession(ctx context.Context, sessionID uint, limit int) ([]models.Order, error)
	RecentOrdersByTable(ctx context.Context, restaurantID uint, tableNumber int, since time.Time, limit int) ([]models.Order, error)
}

// RestaurantInfo is the restaurant snapshot carried in the context
type RestaurantInfo struct {
	ID            uint
	Name          string
	Personality   string
	Tone          string
	ResponseStyle string
	Specialty     string
}

// MenuInfo is a menu item snapshot enriched with derived fields
type MenuInfo struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Available   bool
	DietaryTags []string
	Ingredients []string
	PrepMinutes int
	Popularity  float64
}

// SessionInfo is the active table session snapshot
type SessionInfo struct {
	ID           string
	TableNumber  int
	Status       string
	RunningTotal float64
}

// OrderItemInfo is an order line snapshot
type OrderItemInfo struct {
	MenuItemID string
	Name       string
	Quantity   int
	UnitPrice  float64
	LineTotal  float64
}

// OrderInfo is an order snapshot with its modifiability precomputed
type OrderInfo struct {
	ID         string
	Status     models.OrderStatus
	Items      []OrderItemInfo
	Total      float64
	Modifiable bool
	PlacedAt   time.Time
}

// OrderValidationSummary aggregates the modifiability picture for the
// whole context
type OrderValidationSummary struct {
	StatusModifiable   map[models.OrderStatus]bool
	CurrentStatuses    []models.OrderStatus
	HasModifiableOrder bool
	Verdict            ModifiabilityVerdict
}

// ActionContext is the immutable per-turn snapshot every decision is made
// against. It is built once, read everywhere, and discarded after the
// turn; nothing re-queries the store mid-decision.
type ActionContext struct {
	Restaurant    RestaurantInfo
	Menu          []MenuInfo
	History       []models.ChatMessage
	Session       *SessionInfo
	RecentOrders  []OrderInfo
	Validation    OrderValidationSummary
	PendingAction *CandidateAction // action proposed last turn, awaiting confirmation
}

// ContextBuilder assembles ActionContexts from the store
type ContextBuilder struct {
	store Store
	cfg   Config
}

// NewContextBuilder creates a context builder
func NewContextBuilder(store Store, cfg Config) *ContextBuilder {
	return &ContextBuilder{store: store, cfg: cfg}
}

// Build assembles the snapshot for one turn. Store failures abort the
// build; deciding without ground truth is unsafe, so there is no empty
// fallback context.
func (b *ContextBuilder) Build(ctx context.Context, restaurantID uint, tableNumber int, history []models.ChatMessage) (*ActionContext, error) {
	restaurant, err := b.store.Restaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load restaurant %d: %w", restaurantID, err)
	}

	menuItems, err := b.store.MenuItems(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu for restaurant %d: %w", restaurantID, err)
	}

	var session *models.TableSession
	if tableNumber > 0 {
		session, err = b.store.ActiveSession(ctx, restaurantID, tableNumber)
		if err != nil {
			return nil, fmt.Errorf("failed to load session for table %d: %w", tableNumber, err)
		}
	}

	var orders []models.Order
	switch {
	case session != nil:
		orders, err = b.store.RecentOrdersBySession(ctx, session.ID, b.cfg.RecentOrderLimit)
	case tableNumber > 0:
		since := time.Now().Add(-b.cfg.RecentOrderWindow)
		orders, err = b.store.RecentOrdersByTable(ctx, restaurantID, tableNumber, since, b.cfg.RecentOrderLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	avgPrice := averagePrice(menuItems)
	menu := make([]MenuInfo, 0, len(menuItems))
	for _, mi := range menuItems {
		menu = append(menu, MenuInfo{
			ID:          menuItemID(mi.ID),
			Name:        mi.Name,
			Description: mi.Description,
			Category:    mi.Category,
			Price:       mi.Price,
			Available:   mi.Available,
			DietaryTags: mi.TagList(),
			Ingredients: deriveIngredients(mi.Description),
			PrepMinutes: b.cfg.prepMinutesFor(mi.Category),
			Popularity:  derivePopularity(mi, avgPrice),
		})
	}

	orderInfos := make([]OrderInfo, 0, len(orders))
	statuses := make([]models.OrderStatus, 0, len(orders))
	for _, o := range orders {
		status := models.OrderStatus(o.Status)
		items := make([]OrderItemInfo, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, OrderItemInfo{
				MenuItemID: menuItemID(it.MenuItemID),
				Name:       it.Name,
				Quantity:   it.Quantity,
				UnitPrice:  it.UnitPrice,
				LineTotal:  it.LineTotal,
			})
		}
		orderInfos = append(orderInfos, OrderInfo{
			ID:         orderID(o.ID),
			Status:     status,
			Items:      items,
			Total:      o.Total,
			Modifiable: status.Modifiable(),
			PlacedAt:   o.PlacedAt,
		})
		statuses = append(statuses, status)
	}

	verdict := GateOrders(orderInfos)
	summary := OrderValidationSummary{
		StatusModifiable:   models.StatusModifiability(),
		CurrentStatuses:    statuses,
		HasModifiableOrder: false,
		Verdict:            verdict,
	}
	for _, o := range orderInfos {
		if o.Modifiable {
			summary.HasModifiableOrder = true
			break
		}
	}

	var sessionInfo *SessionInfo
	if session != nil {
		sessionInfo = &SessionInfo{
			ID:           fmt.Sprintf("session-%d", session.ID),
			TableNumber:  session.TableNumber,
			Status:       session.Status,
			RunningTotal: session.RunningTotal,
		}
	}

	if n := len(history); n > b.cfg.HistoryWindow {
		history = history[n-b.cfg.HistoryWindow:]
	}

	return &ActionContext{
		Restaurant: RestaurantInfo{
			ID:            restaurant.ID,
			Name:          restaurant.Name,
			Personality:   restaurant.Personality,
			Tone:          restaurant.Tone,
			ResponseStyle: restaurant.ResponseStyle,
			Specialty:     restaurant.Specialty,
		},
		Menu:         menu,
		History:      history,
		Session:      sessionInfo,
		RecentOrders: orderInfos,
		Validation:   summary,
	}, nil
}

// menuItemID formats the external id for a menu item record
func menuItemID(id uint) string {
	return fmt.Sprintf("menu-item-%d", id)
}

// orderID formats the external id for an order record
func orderID(id uint) string {
	return fmt.Sprintf("order-%d", id)
}

// ingredientVocabulary is the fixed vocabulary the builder scans
// description text against. Descriptions are free text written by the
// restaurant; only words in this list surface as ingredients.
var ingredientVocabulary = []string{
	"chicken", "beef", "pork", "lamb", "salmon", "tuna", "shrimp", "crab",
	"tofu", "egg", "cheese", "mozzarella", "parmesan", "feta", "cream",
	"butter", "garlic", "onion", "tomato", "lettuce", "romaine", "spinach",
	"kale", "avocado", "mushroom", "pepper", "olive", "basil", "cilantro",
	"lemon", "lime", "rice", "pasta", "noodle", "bread", "crouton",
	"bacon", "anchovy", "chocolate", "vanilla", "caramel", "almond",
	"peanut", "honey", "chili", "ginger", "quinoa", "bean", "corn",
}

// deriveIngredients extracts ingredient keywords from description text
// via the fixed vocabulary
func deriveIngredients(description string) []string {
	if description == "" {
		return nil
	}
	lower := strings.ToLower(description)
	var found []string
	for _, ing := range ingredientVocabulary {
		if strings.Contains(lower, ing) {
			found = append(found, ing)
		}
	}
	return found
}

// derivePopularity scores an item in [0,1] from price proximity to the
// menu average and the presence of an image and description. A crude
// heuristic, but stable and explainable.
func derivePopularity(item models.MenuItem, avgPrice float64) float64 {
	score := 0.3
	if avgPrice > 0 {
		distance := item.Price - avgPrice
		if distance < 0 {
			distance = -distance
		}
		proximity := 1.0 - distance/avgPrice
		if proximity < 0 {
			proximity = 0
		}
		score += 0.4 * proximity
	}
	if item.Description != "" {
		score += 0.15
	}
	if item.ImageURL != "" {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}

// averagePrice computes the mean menu price
func averagePrice(items []models.MenuItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += it.Price
	}
	return sum / float64(len(items))
}

// FindMenuItemByID returns the context menu item with the given id
func (c *ActionContext) FindMenuItemByID(id string) *MenuInfo {
	for i := range c.Menu {
		if c.Menu[i].ID == id {
			return &c.Menu[i]
		}
	}
	return nil
}

// FindMenuItemByName returns the context menu item matching name
// case-insensitively
func (c *ActionContext) FindMenuItemByName(name string) *MenuInfo {
	for i := range c.Menu {
		if strings.EqualFold(c.Menu[i].Name, name) {
			return &c.Menu[i]
		}
	}
	return nil
}
