package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus tracks the payment lifecycle of a sale.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusCanceled PaymentStatus = "canceled"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusCanceled,
	PaymentStatusFailed,
	PaymentStatusRefunded,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsPaid reports whether the sale counts as revenue. Only paid bolão sales
// are allocated into groups.
func (p PaymentStatus) IsPaid() bool {
	return p == PaymentStatusPaid
}

// ParsePaymentStatus is case-insensitive and accepts the "cancelled" spelling
// some payment providers send.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "cancelled" {
		return PaymentStatusCanceled, nil
	}
	status := PaymentStatus(normalized)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid payment status %q", value)
	}
	return status, nil
}
