package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunctionCatalogueShape(t *testing.T) {
	tools := functionCatalogue()

	require.Len(t, tools, 12)
	for _, tool := range tools {
		require.NotNil(t, tool.Function)
		assert.Equal(t, "function", tool.Type)
		assert.True(t, KnownActionType(tool.Function.Name), "function %s", tool.Function.Name)
		assert.NotEmpty(t, tool.Function.Description)

		params, ok := tool.Function.Parameters.(map[string]any)
		require.True(t, ok, "function %s", tool.Function.Name)
		props, ok := params["properties"].(map[string]any)
		require.True(t, ok, "function %s", tool.Function.Name)
		assert.Contains(t, props, "reply", "function %s", tool.Function.Name)

		// A silent reply already means no action; it is not a function.
		assert.NotEqual(t, string(ActionNone), tool.Function.Name)
	}
}

func TestParseFunctionCallAddItem(t *testing.T) {
	action, err := parseFunctionCall("add_item",
		`{"items":[{"menu_item_id":"menu-item-1","name":"Caesar Salad","quantity":2,"notes":"no croutons"}],"reply":"Two Caesar Salads coming up."}`)

	require.NoError(t, err)
	assert.Equal(t, ActionAddItem, action.Type)
	require.Len(t, action.Items, 1)
	assert.Equal(t, "menu-item-1", action.Items[0].MenuItemID)
	assert.Equal(t, 2, action.Items[0].Quantity)
	assert.Equal(t, "no croutons", action.Items[0].Notes)
	assert.Equal(t, "Two Caesar Salads coming up.", action.Reply)
}

func TestParseFunctionCallDefaultsQuantity(t *testing.T) {
	action, err := parseFunctionCall("add_item",
		`{"items":[{"name":"Tomato Soup"}],"reply":"Sure."}`)

	require.NoError(t, err)
	require.Len(t, action.Items, 1)
	assert.Equal(t, 1, action.Items[0].Quantity)
}

func TestParseFunctionCallClarificationUsesQuestion(t *testing.T) {
	action, err := parseFunctionCall("request_clarification",
		`{"question":"Which salad did you mean?"}`)

	require.NoError(t, err)
	assert.Equal(t, ActionClarify, action.Type)
	assert.Equal(t, "Which salad did you mean?", action.Reply)
}

func TestParseFunctionCallExplainLockedCarriesReason(t *testing.T) {
	action, err := parseFunctionCall("explain_locked_order",
		`{"reason":"the kitchen already started","reply":"I'm sorry, the kitchen already started."}`)

	require.NoError(t, err)
	assert.Equal(t, ActionExplainLocked, action.Type)
	assert.Equal(t, "the kitchen already started", action.Reason)
}

func TestParseFunctionCallRejectsUnknownName(t *testing.T) {
	_, err := parseFunctionCall("fire_the_chef", `{}`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestParseFunctionCallRejectsMalformedJSON(t *testing.T) {
	_, err := parseFunctionCall("add_item", `{"items": [`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed")
}

func TestParseFunctionCallEmptyArguments(t *testing.T) {
	action, err := parseFunctionCall("check_orders", "")

	require.NoError(t, err)
	assert.Equal(t, ActionCheckOrders, action.Type)
	assert.Empty(t, action.Items)
}

func TestKnownActionType(t *testing.T) {
	for _, typ := range actionTypes {
		assert.True(t, KnownActionType(string(typ)))
	}
	assert.False(t, KnownActionType("make_reservation"))
	assert.False(t, KnownActionType(""))
}
