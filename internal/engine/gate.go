package engine

import (
	"fmt"

	"maitred/internal/models"
)

// ModifiabilityVerdict is the order state gate's restaurant-wide answer
// for whether the current order can still be changed. It is advisory
// context for the AI path and authoritative for the validator.
type ModifiabilityVerdict struct {
	CanModify      bool               `json:"can_modify"`
	Reason         string             `json:"reason"`
	BlockingStatus models.OrderStatus `json:"blocking_status,omitempty"`
}

// GateOrders derives the verdict from a session's recent orders, ordered
// most-recent-first. Cancelled orders are ignored; the verdict follows
// the status of the most recent live order.
func GateOrders(orders []OrderInfo) ModifiabilityVerdict {
	for _, o := range orders {
		if o.Status == models.OrderStatusCancelled {
			continue
		}
		if o.Status.Modifiable() {
			return ModifiabilityVerdict{
				CanModify: true,
				Reason:    fmt.Sprintf("order %s is still pending and can be changed", o.ID),
			}
		}
		return ModifiabilityVerdict{
			CanModify:      false,
			Reason:         fmt.Sprintf("order %s is already %s and can no longer be changed", o.ID, o.Status),
			BlockingStatus: o.Status,
		}
	}
	return ModifiabilityVerdict{
		CanModify: false,
		Reason:    "there is nothing to modify, no order has been placed yet",
	}
}
