package sales

import "github.com/vendfleet/vendfleet-backend/pkg/enums"

// saleStatusFromGateway maps gateway payment statuses onto the sale enum.
// Statuses that describe an in-flight payment collapse to pending; anything
// the enum cannot represent is reported as unmapped so the caller can log
// and acknowledge without writing.
func saleStatusFromGateway(status string) (enums.SaleStatus, bool) {
	switch status {
	case "approved":
		return enums.SaleStatusApproved, true
	case "pending", "in_process", "authorized":
		return enums.SaleStatusPending, true
	case "rejected":
		return enums.SaleStatusRejected, true
	case "cancelled":
		return enums.SaleStatusCancelled, true
	case "refunded":
		return enums.SaleStatusRefunded, true
	default:
		return "", false
	}
}
