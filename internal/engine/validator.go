package engine

import (
	"fmt"
	"strings"
)

// Validator reconciles a candidate decision against the context snapshot.
// It is the one place business rules are enforced, so neither path can
// smuggle an unsafe action past it.
type Validator struct {
	cfg Config
}

// NewValidator creates a validator
func NewValidator(cfg Config) *Validator {
	return &Validator{cfg: cfg}
}

// Finalize validates and normalizes a decision in place and returns it.
// It is idempotent: running it again on its own output changes nothing.
func (v *Validator) Finalize(res *DecisionResult, actx *ActionContext) *DecisionResult {
	if res.Action == nil {
		res.Action = &CandidateAction{Type: ActionNone}
	}
	action := res.Action

	var notes []string

	if len(action.Items) > 0 {
		resolved := make([]ActionItem, 0, len(action.Items))
		for _, item := range action.Items {
			menu := actx.FindMenuItemByID(item.MenuItemID)
			if menu == nil && item.Name != "" {
				// Self-healing: the model often gets the name right while
				// hallucinating the id.
				menu = actx.FindMenuItemByName(item.Name)
				if menu != nil {
					notes = append(notes, fmt.Sprintf("corrected id for %q to %s", item.Name, menu.ID))
				}
			}
			if menu == nil {
				notes = append(notes, fmt.Sprintf("discarded unresolvable item %q (%s)", item.Name, item.MenuItemID))
				continue
			}

			qty := item.Quantity
			if qty < 1 {
				qty = 1
			}
			if qty > v.cfg.MaxQuantity {
				notes = append(notes, fmt.Sprintf("clamped quantity for %s to %d", menu.Name, v.cfg.MaxQuantity))
				qty = v.cfg.MaxQuantity
			}

			// Totals always come from the menu snapshot, never from an
			// estimate supplied with the candidate.
			resolved = append(resolved, ActionItem{
				MenuItemID: menu.ID,
				Name:       menu.Name,
				Quantity:   qty,
				UnitPrice:  menu.Price,
				LineTotal:  float64(qty) * menu.Price,
				Notes:      item.Notes,
			})
		}
		action.Items = resolved

		var total float64
		for _, it := range action.Items {
			total += it.LineTotal
		}
		action.Total = total

		if len(action.Items) == 0 && itemBearing(action.Type) {
			action.Type = ActionClarify
			action.Reply = "I couldn't find that on our menu. Could you tell me which dish you meant?"
			notes = append(notes, "no items resolved, asking for clarification")
		}
	}

	// Hard gate: a mutating action against a non-modifiable order is
	// replaced unconditionally, whichever path produced it and however
	// confident it was.
	if action.Type.Mutating() && !actx.Validation.Verdict.CanModify {
		reason := actx.Validation.Verdict.Reason
		res.Action = &CandidateAction{
			Type:   ActionExplainLocked,
			Reason: reason,
			Reply:  fmt.Sprintf("I'm sorry, %s.", reason),
		}
		notes = append(notes, fmt.Sprintf("blocked %s: %s", action.Type, reason))
	}

	if len(notes) > 0 {
		joined := strings.Join(notes, "; ")
		if res.Reasoning == "" {
			res.Reasoning = joined
		} else if !strings.Contains(res.Reasoning, joined) {
			res.Reasoning = res.Reasoning + " (" + joined + ")"
		}
	}

	return res
}

// itemBearing reports whether the action type is meaningless without at
// least one resolved item
func itemBearing(t ActionType) bool {
	switch t {
	case ActionAddItem, ActionRemoveItem, ActionModifyItemQuantity:
		return true
	}
	return false
}
