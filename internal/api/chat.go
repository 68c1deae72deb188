package api

import (
	"context"
	"errors"
	"log"
	"net/http"

	"maitred/internal/commands"
	"maitred/internal/engine"
	"maitred/internal/models"

	"github.com/gin-gonic/gin"
)

// ChatRequest is one customer message plus its conversation state
type ChatRequest struct {
	RestaurantID    uint                 `json:"restaurant_id" binding:"required"`
	TableNumber     int                  `json:"table_number"`
	Message         string               `json:"message" binding:"required"`
	History         []models.ChatMessage `json:"history"`
	PendingActionID string               `json:"pending_action_id"`
}

// ChatResponse carries the waiter's reply and, when an action was
// proposed, the id the client must confirm against
type ChatResponse struct {
	Reply        string                  `json:"reply"`
	Action       *engine.CandidateAction `json:"action,omitempty"`
	ActionID     string                  `json:"action_id,omitempty"`
	Confidence   float64                 `json:"confidence"`
	UsedFallback bool                    `json:"used_fallback"`
	Reasoning    string                  `json:"reasoning,omitempty"`
}

// Chat runs the decision engine for one customer message. Proposed
// mutating actions are parked in the action store; nothing is committed
// until the customer confirms.
func (w *WaiterAPI) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pending *engine.CandidateAction
	if req.PendingActionID != "" {
		pending, _ = w.actions.Get(req.PendingActionID)
	}

	result, err := w.engine.Decide(c.Request.Context(), engine.Request{
		RestaurantID:  req.RestaurantID,
		TableNumber:   req.TableNumber,
		Message:       req.Message,
		History:       req.History,
		PendingAction: pending,
	})
	if err != nil {
		// Context build failures are the one hard error; never leak the
		// raw cause to the customer.
		log.Printf("decision failed for restaurant %d table %d: %v", req.RestaurantID, req.TableNumber, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "The waiter is unavailable right now. Please try again shortly.",
		})
		return
	}

	resp := w.buildChatResponse(c.Request.Context(), req, result, pending)
	c.JSON(http.StatusOK, resp)
}

// buildChatResponse turns a decision into the wire response, parking
// confirmable actions in the action store
func (w *WaiterAPI) buildChatResponse(ctx context.Context, req ChatRequest, result *engine.DecisionResult, pending *engine.CandidateAction) ChatResponse {
	resp := ChatResponse{
		Confidence:   result.Confidence,
		UsedFallback: result.UsedFallback,
		Reasoning:    result.Reasoning,
	}
	if result.Action == nil {
		resp.Reply = "How can I help you today?"
		return resp
	}

	resp.Action = result.Action
	resp.Reply = result.Action.Reply
	if resp.Reply == "" {
		resp.Reply = result.Reasoning
	}

	switch {
	case result.Action.Type == engine.ActionConfirmOrder && pending != nil:
		// The customer just said yes to last turn's proposal: commit the
		// proposal, then clear it.
		if order, err := w.committer.Execute(ctx, req.RestaurantID, req.TableNumber, pending); err != nil {
			log.Printf("commit of pending action failed: %v", err)
			resp.Reply = commitFailureReply(err)
		} else {
			w.actions.Delete(req.PendingActionID)
			resp.Reply = confirmReply(order)
		}
	case result.Action.Type.Mutating():
		resp.ActionID = w.actions.Put(result.Action)
	}
	return resp
}

// ConfirmAction commits a previously proposed action
func (w *WaiterAPI) ConfirmAction(c *gin.Context) {
	id := c.Param("id")
	action, ok := w.actions.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Action expired or not found"})
		return
	}

	var req struct {
		RestaurantID uint `json:"restaurant_id" binding:"required"`
		TableNumber  int  `json:"table_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := w.committer.Execute(c.Request.Context(), req.RestaurantID, req.TableNumber, action)
	if err != nil {
		if errors.Is(err, commands.ErrOrderNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "That order can no longer be changed"})
			return
		}
		log.Printf("commit of action %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not complete that action"})
		return
	}

	w.actions.Delete(id)
	c.JSON(http.StatusOK, gin.H{"message": "Done", "order": order})
}

// DeclineAction discards a previously proposed action
func (w *WaiterAPI) DeclineAction(c *gin.Context) {
	w.actions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"message": "No problem, I won't do that."})
}

func confirmReply(order *models.Order) string {
	if order == nil {
		return "Done! Anything else I can get you?"
	}
	return "Wonderful, that's on its way to the kitchen!"
}

func commitFailureReply(err error) string {
	if errors.Is(err, commands.ErrOrderNotPending) {
		return "I'm sorry, the kitchen has already started on that order, so I can't change it."
	}
	return "I had trouble putting that through. Could you try once more?"
}
