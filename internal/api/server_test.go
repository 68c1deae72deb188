package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"maitred/internal/actionstore"
	"maitred/internal/commands"
	"maitred/internal/database"
	"maitred/internal/engine"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// stubModel fails every call, pushing the engine onto its pattern
// fallback so handler tests stay deterministic.
type stubModel struct{}

func (stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("model offline")
}

func (stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	return nil, errors.New("model offline")
}

type testAPI struct {
	*WaiterAPI
	db *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.DB().SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedDemoData(db))
	t.Cleanup(func() { db.Close() })

	store := database.NewGormStore(db)
	eng := engine.New(store, stubModel{}, engine.DefaultConfig())
	actions := actionstore.New(time.Minute)
	t.Cleanup(actions.Stop)
	committer := commands.NewCommitter(db)

	return &testAPI{
		WaiterAPI: NewWaiterAPI(eng, actions, committer, db, "test-secret"),
		db:        db,
	}
}

func (a *testAPI) request(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) seedPendingOrder(t *testing.T, table int) *models.Order {
	t.Helper()
	order, err := commands.NewCommitter(a.db).Execute(context.Background(), 1, table, &engine.CandidateAction{
		Type: engine.ActionAddItem,
		Items: []engine.ActionItem{
			{MenuItemID: "menu-item-1", Name: "Caesar Salad", Quantity: 2, UnitPrice: 12.99, LineTotal: 25.98},
		},
	})
	require.NoError(t, err)
	return order
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodGet, "/health", nil, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestChatRejectsMissingFields(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/api/v1/chat", gin.H{"restaurant_id": 1}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatProposesMutatingAction(t *testing.T) {
	api := newTestAPI(t)
	api.seedPendingOrder(t, 5)

	rec := api.request(t, http.MethodPost, "/api/v1/chat", ChatRequest{
		RestaurantID: 1,
		TableNumber:  5,
		Message:      "I want 2 caesar salads",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.UsedFallback)
	require.NotNil(t, resp.Action)
	assert.Equal(t, engine.ActionAddItem, resp.Action.Type)
	require.NotEmpty(t, resp.ActionID)

	// The proposal is parked, not committed.
	parked, ok := api.actions.Get(resp.ActionID)
	require.True(t, ok)
	assert.Equal(t, engine.ActionAddItem, parked.Type)
}

func TestChatUnknownRestaurantIsUnavailable(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodPost, "/api/v1/chat", ChatRequest{
		RestaurantID: 999,
		Message:      "hello",
	}, nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "restaurant 999")
}

func TestChatConfirmsPendingActionInline(t *testing.T) {
	api := newTestAPI(t)
	api.seedPendingOrder(t, 5)

	id := api.actions.Put(&engine.CandidateAction{Type: engine.ActionConfirmOrder})

	rec := api.request(t, http.MethodPost, "/api/v1/chat", ChatRequest{
		RestaurantID:    1,
		TableNumber:     5,
		Message:         "yes, go ahead",
		PendingActionID: id,
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, api.db.First(&order).Error)
	assert.Equal(t, string(models.OrderStatusPreparing), order.Status)

	_, ok := api.actions.Get(id)
	assert.False(t, ok)
}

func TestConfirmActionEndpoint(t *testing.T) {
	api := newTestAPI(t)
	id := api.actions.Put(&engine.CandidateAction{
		Type: engine.ActionAddItem,
		Items: []engine.ActionItem{
			{MenuItemID: "menu-item-2", Name: "Tomato Soup", Quantity: 1, UnitPrice: 8.50, LineTotal: 8.50},
		},
	})

	rec := api.request(t, http.MethodPost, "/api/v1/actions/"+id+"/confirm",
		gin.H{"restaurant_id": 1, "table_number": 3}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var order models.Order
	require.NoError(t, api.db.Preload("Items").First(&order).Error)
	assert.Equal(t, 3, order.TableNumber)
	require.Len(t, order.Items, 1)
	assert.InDelta(t, 8.50, order.Total, 0.001)

	// Committed actions are gone; a replay finds nothing.
	rec = api.request(t, http.MethodPost, "/api/v1/actions/"+id+"/confirm",
		gin.H{"restaurant_id": 1, "table_number": 3}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConfirmConflictWhenOrderLocked(t *testing.T) {
	api := newTestAPI(t)
	order := api.seedPendingOrder(t, 5)
	require.NoError(t, api.db.Model(order).Update("status", string(models.OrderStatusPreparing)).Error)

	id := api.actions.Put(&engine.CandidateAction{Type: engine.ActionConfirmOrder})

	rec := api.request(t, http.MethodPost, "/api/v1/actions/"+id+"/confirm",
		gin.H{"restaurant_id": 1, "table_number": 5}, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeclineAction(t *testing.T) {
	api := newTestAPI(t)
	id := api.actions.Put(&engine.CandidateAction{Type: engine.ActionAddItem})

	rec := api.request(t, http.MethodPost, "/api/v1/actions/"+id+"/decline", gin.H{}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := api.actions.Get(id)
	assert.False(t, ok)
}

func TestGetOrdersFilters(t *testing.T) {
	api := newTestAPI(t)
	api.seedPendingOrder(t, 5)

	rec := api.request(t, http.MethodGet, "/api/v1/orders?restaurant_id=1&table=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Len(t, orders, 1)

	rec = api.request(t, http.MethodGet, "/api/v1/orders?restaurant_id=1&table=9", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	assert.Empty(t, orders)
}

func TestGetOrderNotFound(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodGet, "/api/v1/orders/42", nil, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func staffToken(t *testing.T, api *testAPI) string {
	t.Helper()
	t.Setenv("STAFF_PASSWORD", "secret-pass")

	rec := api.request(t, http.MethodPost, "/api/v1/staff/login",
		gin.H{"username": "ana", "password": "secret-pass"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestStaffLoginRejectsBadPassword(t *testing.T) {
	api := newTestAPI(t)
	t.Setenv("STAFF_PASSWORD", "secret-pass")

	rec := api.request(t, http.MethodPost, "/api/v1/staff/login",
		gin.H{"username": "ana", "password": "wrong"}, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffEndpointsRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(t, http.MethodGet, "/api/v1/staff/menu", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.request(t, http.MethodGet, "/api/v1/staff/menu", nil,
		map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStaffMenuManagement(t *testing.T) {
	api := newTestAPI(t)
	auth := map[string]string{"Authorization": "Bearer " + staffToken(t, api)}

	rec := api.request(t, http.MethodPost, "/api/v1/staff/menu", models.MenuItem{
		RestaurantID: 1, Name: "Seared Scallops", Category: "entree", Price: 26.50, Available: true,
	}, auth)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.MenuItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = api.request(t, http.MethodGet, "/api/v1/staff/menu?restaurant_id=1", nil, auth)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Seared Scallops")

	created.Price = 29.00
	rec = api.request(t, http.MethodPut, fmt.Sprintf("/api/v1/staff/menu/%d", created.ID), created, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/staff/menu/%d", created.ID), nil, auth)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStaffMenuRejectsInvalidItem(t *testing.T) {
	api := newTestAPI(t)
	auth := map[string]string{"Authorization": "Bearer " + staffToken(t, api)}

	rec := api.request(t, http.MethodPost, "/api/v1/staff/menu", models.MenuItem{
		RestaurantID: 1, Name: "Free Lunch", Category: "entree", Price: 0,
	}, auth)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateOrderStatusForwardOnly(t *testing.T) {
	api := newTestAPI(t)
	auth := map[string]string{"Authorization": "Bearer " + staffToken(t, api)}
	order := api.seedPendingOrder(t, 5)
	path := fmt.Sprintf("/api/v1/staff/orders/%d/status", order.ID)

	rec := api.request(t, http.MethodPut, path, gin.H{"status": "preparing"}, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.request(t, http.MethodPut, path, gin.H{"status": "ready"}, auth)
	assert.Equal(t, http.StatusOK, rec.Code)

	// No going back once the kitchen has it.
	rec = api.request(t, http.MethodPut, path, gin.H{"status": "pending"}, auth)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestValidTransition(t *testing.T) {
	assert.True(t, validTransition(models.OrderStatusPending, models.OrderStatusPreparing))
	assert.True(t, validTransition(models.OrderStatusPending, models.OrderStatusCancelled))
	assert.True(t, validTransition(models.OrderStatusPreparing, models.OrderStatusReady))
	assert.True(t, validTransition(models.OrderStatusReady, models.OrderStatusServed))

	assert.False(t, validTransition(models.OrderStatusPreparing, models.OrderStatusPending))
	assert.False(t, validTransition(models.OrderStatusServed, models.OrderStatusReady))
	assert.False(t, validTransition(models.OrderStatusCancelled, models.OrderStatusPending))
	assert.False(t, validTransition(models.OrderStatusPending, models.OrderStatusServed))
}
