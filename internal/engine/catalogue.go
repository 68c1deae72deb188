package engine

import (
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// functionItemSchema is the shared schema for menu item references in
// function arguments
var functionItemSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"menu_item_id": map[string]any{"type": "string", "description": "Menu item id exactly as listed"},
			"name":         map[string]any{"type": "string", "description": "Menu item name exactly as listed"},
			"quantity":     map[string]any{"type": "integer", "description": "How many, default 1"},
			"notes":        map[string]any{"type": "string", "description": "Special requests for this item"},
		},
		"required": []string{"name"},
	},
}

// functionCatalogue declares one callable function per action type the
// model may choose. no_action is deliberately absent: a free-text reply
// with no function call already means "just talk".
func functionCatalogue() []llms.Tool {
	withReply := func(props map[string]any, required ...string) map[string]any {
		props["reply"] = map[string]any{
			"type":        "string",
			"description": "What to say to the customer, in the restaurant's voice",
		}
		return map[string]any{
			"type":       "object",
			"properties": props,
			"required":   required,
		}
	}

	return []llms.Tool{
		function(ActionAddItem, "Add one or more menu items to the customer's order",
			withReply(map[string]any{"items": functionItemSchema}, "items")),
		function(ActionRemoveItem, "Remove items from the customer's pending order",
			withReply(map[string]any{"items": functionItemSchema}, "items")),
		function(ActionModifyItemQuantity, "Change the quantity of an item already on the pending order",
			withReply(map[string]any{"items": functionItemSchema}, "items")),
		function(ActionConfirmOrder, "Confirm and place the customer's pending order",
			withReply(map[string]any{"order_id": map[string]any{"type": "string"}})),
		function(ActionCancelOrder, "Cancel the customer's pending order",
			withReply(map[string]any{"order_id": map[string]any{"type": "string"}})),
		function(ActionCheckOrders, "Report the status of the customer's orders",
			withReply(map[string]any{})),
		function(ActionEditOrder, "Start editing the customer's pending order",
			withReply(map[string]any{"order_id": map[string]any{"type": "string"}})),
		function(ActionRecommend, "Recommend menu items suited to what the customer asked for",
			withReply(map[string]any{"preference": map[string]any{"type": "string", "description": "What the customer is in the mood for"}})),
		function(ActionClarify, "Ask the customer a clarifying question when their request is ambiguous",
			withReply(map[string]any{"question": map[string]any{"type": "string"}}, "question")),
		function(ActionExplainLocked, "Explain that the order can no longer be changed and why",
			withReply(map[string]any{"reason": map[string]any{"type": "string"}})),
		function(ActionProvideInfo, "Answer a question about the restaurant, menu, or dietary details",
			withReply(map[string]any{"topic": map[string]any{"type": "string"}})),
		function(ActionHandleComplaint, "Acknowledge and handle a customer complaint",
			withReply(map[string]any{"details": map[string]any{"type": "string"}})),
	}
}

func function(t ActionType, description string, parameters map[string]any) llms.Tool {
	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        string(t),
			Description: description,
			Parameters:  parameters,
		},
	}
}

// functionArguments is the superset of parameters any catalogue function
// can carry
type functionArguments struct {
	Items []struct {
		MenuItemID string `json:"menu_item_id"`
		Name       string `json:"name"`
		Quantity   int    `json:"quantity"`
		Notes      string `json:"notes"`
	} `json:"items"`
	OrderID    string `json:"order_id"`
	Reply      string `json:"reply"`
	Preference string `json:"preference"`
	Question   string `json:"question"`
	Reason     string `json:"reason"`
	Topic      string `json:"topic"`
	Details    string `json:"details"`
}

// parseFunctionCall turns a model function call into a CandidateAction.
// Unknown names and malformed argument JSON are rejected; anything that
// does not fit a known schema must not pass through.
func parseFunctionCall(name, argumentsJSON string) (*CandidateAction, error) {
	if !KnownActionType(name) {
		return nil, fmt.Errorf("unknown function %q", name)
	}

	var args functionArguments
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return nil, fmt.Errorf("malformed arguments for %s: %w", name, err)
		}
	}

	action := &CandidateAction{
		Type:    ActionType(name),
		OrderID: args.OrderID,
		Reply:   args.Reply,
	}
	for _, it := range args.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		action.Items = append(action.Items, ActionItem{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			Quantity:   qty,
			Notes:      it.Notes,
		})
	}

	switch action.Type {
	case ActionClarify:
		if action.Reply == "" {
			action.Reply = args.Question
		}
	case ActionExplainLocked:
		action.Reason = args.Reason
	}

	return action, nil
}
