package api

import (
	"net/http"

	"maitred/internal/actionstore"
	"maitred/internal/commands"
	"maitred/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// WaiterAPI is the HTTP surface for the conversational waiter
type WaiterAPI struct {
	Router    *gin.Engine
	engine    *engine.Engine
	actions   *actionstore.Store
	committer *commands.Committer
	db        *gorm.DB
	jwtSecret []byte
}

// NewWaiterAPI creates the API server and wires its routes
func NewWaiterAPI(eng *engine.Engine, actions *actionstore.Store, committer *commands.Committer, db *gorm.DB, jwtSecret string) *WaiterAPI {
	router := gin.Default()

	api := &WaiterAPI{
		Router:    router,
		engine:    eng,
		actions:   actions,
		committer: committer,
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}

	api.setupRoutes()
	return api
}

// setupRoutes configures all API endpoints
func (w *WaiterAPI) setupRoutes() {
	// Health check
	w.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Maitre d' API is running"})
	})

	// Live chat transport
	w.Router.GET("/ws", w.handleWebSocket)

	v1 := w.Router.Group("/api/v1")
	{
		// Conversation
		v1.POST("/chat", w.Chat)
		v1.POST("/actions/:id/confirm", w.ConfirmAction)
		v1.POST("/actions/:id/decline", w.DeclineAction)

		// Order visibility
		v1.GET("/orders", w.GetOrders)
		v1.GET("/orders/:id", w.GetOrder)

		// Staff endpoints, token-gated
		staff := v1.Group("/staff")
		staff.POST("/login", w.StaffLogin)
		protected := staff.Group("")
		protected.Use(w.requireStaffToken())
		{
			protected.GET("/menu", w.GetMenu)
			protected.POST("/menu", w.CreateMenuItem)
			protected.PUT("/menu/:id", w.UpdateMenuItem)
			protected.DELETE("/menu/:id", w.DeleteMenuItem)
			protected.PUT("/orders/:id/status", w.UpdateOrderStatus)
		}
	}
}
