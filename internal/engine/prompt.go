package engine

import (
	"fmt"
	"strings"
)

// renderSystemPrompt embeds the restaurant's voice, the menu snapshot,
// and the order state verdict into the instructions for one model call.
func renderSystemPrompt(actx *ActionContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the waiter at %s.", actx.Restaurant.Name)
	if actx.Restaurant.Personality != "" {
		fmt.Fprintf(&b, " Your personality: %s.", actx.Restaurant.Personality)
	}
	if actx.Restaurant.Tone != "" {
		fmt.Fprintf(&b, " Tone: %s.", actx.Restaurant.Tone)
	}
	if actx.Restaurant.ResponseStyle != "" {
		fmt.Fprintf(&b, " Response style: %s.", actx.Restaurant.ResponseStyle)
	}
	if actx.Restaurant.Specialty != "" {
		fmt.Fprintf(&b, "\nHouse knowledge: %s", actx.Restaurant.Specialty)
	}

	b.WriteString("\n\nMENU (use the exact ids and names below, never invent items):\n")
	for _, mi := range actx.Menu {
		availability := "available"
		if !mi.Available {
			availability = "SOLD OUT, do not offer"
		}
		fmt.Fprintf(&b, "- %s | %s | $%.2f | %s | %s\n", mi.ID, mi.Name, mi.Price, mi.Category, availability)
		if len(mi.DietaryTags) > 0 {
			fmt.Fprintf(&b, "  dietary: %s\n", strings.Join(mi.DietaryTags, ", "))
		}
	}

	b.WriteString("\nORDER STATE:\n")
	if len(actx.RecentOrders) == 0 {
		b.WriteString("- No orders placed yet this visit.\n")
	}
	for _, o := range actx.RecentOrders {
		fmt.Fprintf(&b, "- %s: %s, total $%.2f\n", o.ID, o.Status, o.Total)
	}
	fmt.Fprintf(&b, "Modification verdict: %s\n", actx.Validation.Verdict.Reason)

	b.WriteString("\nRULES:\n")
	b.WriteString("- Pick exactly one of the provided functions when the customer wants something done; reply in plain text only for small talk.\n")
	if !actx.Validation.Verdict.CanModify {
		b.WriteString("- The current order CANNOT be modified. Never offer to add, remove, change, confirm, or cancel anything. ")
		b.WriteString("If the customer asks for a change, call explain_locked_order with the verdict above as the reason.\n")
	}
	b.WriteString("- Never quote a price that is not on the menu above.\n")
	b.WriteString("- Quantities default to 1 when the customer does not say.\n")

	if actx.PendingAction != nil {
		fmt.Fprintf(&b, "\nAWAITING CONFIRMATION: you proposed %s last turn; a plain yes means confirm_order.\n", actx.PendingAction.Type)
	}

	return b.String()
}
