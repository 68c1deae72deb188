package engine

import "time"

// ActionType identifies one of the fixed set of actions the waiter can
// propose for a turn.
type ActionType string

const (
	ActionAddItem            ActionType = "add_item"
	ActionRemoveItem         ActionType = "remove_item"
	ActionModifyItemQuantity ActionType = "modify_item_quantity"
	ActionConfirmOrder       ActionType = "confirm_order"
	ActionCancelOrder        ActionType = "cancel_order"
	ActionCheckOrders        ActionType = "check_orders"
	ActionEditOrder          ActionType = "edit_order"
	ActionRecommend          ActionType = "request_recommendation"
	ActionClarify            ActionType = "request_clarification"
	ActionExplainLocked      ActionType = "explain_locked_order"
	ActionProvideInfo        ActionType = "provide_info"
	ActionHandleComplaint    ActionType = "handle_complaint"
	ActionNone               ActionType = "no_action"
)

// actionTypes lists every known action type
var actionTypes = []ActionType{
	ActionAddItem,
	ActionRemoveItem,
	ActionModifyItemQuantity,
	ActionConfirmOrder,
	ActionCancelOrder,
	ActionCheckOrders,
	ActionEditOrder,
	ActionRecommend,
	ActionClarify,
	ActionExplainLocked,
	ActionProvideInfo,
	ActionHandleComplaint,
	ActionNone,
}

// KnownActionType reports whether name is one of the catalogue entries
func KnownActionType(name string) bool {
	for _, t := range actionTypes {
		if string(t) == name {
			return true
		}
	}
	return false
}

// Mutating reports whether the action changes an order if executed.
// Mutating actions are the ones the order state gate can veto.
func (t ActionType) Mutating() bool {
	switch t {
	case ActionAddItem, ActionRemoveItem, ActionModifyItemQuantity,
		ActionConfirmOrder, ActionCancelOrder, ActionEditOrder:
		return true
	}
	return false
}

// ActionItem is a menu item reference carried by an action
type ActionItem struct {
	MenuItemID string  `json:"menu_item_id"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
	Notes      string  `json:"notes,omitempty"`
}

// CandidateAction is the structured proposal for what the customer wants
// done. Only the fields relevant to the action type are populated.
type CandidateAction struct {
	Type    ActionType   `json:"type"`
	Items   []ActionItem `json:"items,omitempty"`
	OrderID string       `json:"order_id,omitempty"`
	Total   float64      `json:"total,omitempty"`
	Reply   string       `json:"reply,omitempty"`  // conversational text to show the customer
	Reason  string       `json:"reason,omitempty"` // set for explain_locked_order
}

// DecisionResult is the engine's answer for one conversation turn
type DecisionResult struct {
	Action       *CandidateAction  `json:"action,omitempty"`
	Confidence   float64           `json:"confidence"`
	Reasoning    string            `json:"reasoning"`
	UsedFallback bool              `json:"used_fallback"`
	Intent       string            `json:"intent,omitempty"`
	Entities     map[string]string `json:"entities,omitempty"`
	Path         string            `json:"path"` // "ai" or "fallback"
	Latency      time.Duration     `json:"latency_ns"`
}

// Decision paths
const (
	PathAI       = "ai"
	PathFallback = "fallback"
)
