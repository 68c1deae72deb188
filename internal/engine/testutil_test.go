package engine

import (
	"context"
	"time"

	"maitred/internal/models"

	"github.com/stretchr/testify/mock"
	"github.com/tmc/langchaingo/llms"
)

// MockLLM is a mock implementation of the langchaingo model interface
type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	args := m.Called(ctx, messages)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llms.ContentResponse), args.Error(1)
}

// toolCallResponse builds a model response choosing one function
func toolCallResponse(name, argumentsJSON string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						ID:   "call-1",
						Type: "function",
						FunctionCall: &llms.FunctionCall{
							Name:      name,
							Arguments: argumentsJSON,
						},
					},
				},
			},
		},
	}
}

// textResponse builds a model response with plain content
func textResponse(content string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}
}

// testMenu is the standard menu fixture
func testMenu() []MenuInfo {
	return []MenuInfo{
		{ID: "menu-item-1", Name: "Caesar Salad", Category: "salad", Price: 12.99, Available: true, Popularity: 0.8},
		{ID: "menu-item-2", Name: "Tomato Soup", Category: "appetizer", Price: 8.50, Available: true, Popularity: 0.6},
		{ID: "menu-item-3", Name: "Braised Short Rib", Category: "entree", Price: 28.00, Available: true, Popularity: 0.7},
		{ID: "menu-item-4", Name: "Truffle Pasta", Category: "entree", Price: 24.00, Available: false, Popularity: 0.9},
	}
}

// testContext builds an ActionContext around the standard menu and the
// given orders
func testContext(orders ...OrderInfo) *ActionContext {
	actx := &ActionContext{
		Restaurant: RestaurantInfo{
			ID:          1,
			Name:        "The Copper Spoon",
			Personality: "warm and attentive",
		},
		Menu:         testMenu(),
		RecentOrders: orders,
	}
	actx.Validation = OrderValidationSummary{
		StatusModifiable: models.StatusModifiability(),
		Verdict:          GateOrders(orders),
	}
	for _, o := range orders {
		actx.Validation.CurrentStatuses = append(actx.Validation.CurrentStatuses, o.Status)
		if o.Modifiable {
			actx.Validation.HasModifiableOrder = true
		}
	}
	return actx
}

// pendingOrder returns a modifiable order fixture
func pendingOrder() OrderInfo {
	return OrderInfo{
		ID:         "order-1",
		Status:     models.OrderStatusPending,
		Modifiable: true,
		Total:      12.99,
		PlacedAt:   time.Now(),
	}
}

// preparingOrder returns a locked order fixture
func preparingOrder() OrderInfo {
	return OrderInfo{
		ID:       "order-1",
		Status:   models.OrderStatusPreparing,
		Total:    12.99,
		PlacedAt: time.Now(),
	}
}

// fakeStore is an in-memory engine.Store for builder and orchestrator
// tests
type fakeStore struct {
	restaurant *models.Restaurant
	menu       []models.MenuItem
	session    *models.TableSession
	orders     []models.Order

	restaurantErr error
	menuErr       error
	sessionErr    error
	ordersErr     error

	tableQueries int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		restaurant: &models.Restaurant{
			Name:        "The Copper Spoon",
			Personality: "warm and attentive",
			Tone:        "casual",
		},
		menu: []models.MenuItem{
			{RestaurantID: 1, Name: "Caesar Salad", Description: "Crisp romaine, parmesan, croutons", Category: "salad", Price: 12.99, Available: true},
			{RestaurantID: 1, Name: "Tomato Soup", Description: "Roasted tomato, basil, cream", Category: "appetizer", Price: 8.50, Available: true, DietaryTags: "vegetarian,gluten-free", ImageURL: "soup.jpg"},
		},
	}
}

func (s *fakeStore) Restaurant(ctx context.Context, id uint) (*models.Restaurant, error) {
	if s.restaurantErr != nil {
		return nil, s.restaurantErr
	}
	r := *s.restaurant
	r.ID = id
	return &r, nil
}

func (s *fakeStore) MenuItems(ctx context.Context, restaurantID uint) ([]models.MenuItem, error) {
	if s.menuErr != nil {
		return nil, s.menuErr
	}
	items := make([]models.MenuItem, len(s.menu))
	copy(items, s.menu)
	for i := range items {
		items[i].ID = uint(i + 1)
	}
	return items, nil
}

func (s *fakeStore) ActiveSession(ctx context.Context, restaurantID uint, tableNumber int) (*models.TableSession, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.session, nil
}

func (s *fakeStore) RecentOrdersBySession(ctx context.Context, sessionID uint, limit int) ([]models.Order, error) {
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return s.orders, nil
}

func (s *fakeStore) RecentOrdersByTable(ctx context.Context, restaurantID uint, tableNumber int, since time.Time, limit int) ([]models.Order, error) {
	s.tableQueries++
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return s.orders, nil
}
