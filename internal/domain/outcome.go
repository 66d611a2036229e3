package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PurchaseStatus string

const (
	PurchaseSuccess           PurchaseStatus = "success"
	PurchaseInsufficientStock PurchaseStatus = "insufficient_stock"
	PurchaseTransactionFailed PurchaseStatus = "transaction_failed"
	PurchaseStoreUnavailable  PurchaseStatus = "store_unavailable"
)

type PurchaseOutcome struct {
	Status       PurchaseStatus  `json:"status"`
	ProductID    int             `json:"product_id"`
	Quantity     int             `json:"quantity"`
	TotalCharged decimal.Decimal `json:"total_charged"`
	// Available is the stock seen by the snapshot read.
	Available int   `json:"available"`
	Err       error `json:"-"`
}

func (o PurchaseOutcome) Succeeded() bool {
	return o.Status == PurchaseSuccess
}

func (o PurchaseOutcome) Message() string {
	switch o.Status {
	case PurchaseSuccess:
		return fmt.Sprintf("Your total is $%s", o.TotalCharged.StringFixed(2))
	case PurchaseInsufficientStock:
		return fmt.Sprintf("Insufficient quantity! Requested %d, available %d", o.Quantity, o.Available)
	case PurchaseTransactionFailed:
		return "Something's wrong, transaction failed! Stock changed before the purchase could be applied"
	case PurchaseStoreUnavailable:
		return "Catalog store unavailable, no purchase was made"
	default:
		return string(o.Status)
	}
}

type RegistrationStatus string

const (
	RegistrationSuccess          RegistrationStatus = "success"
	RegistrationDuplicateName    RegistrationStatus = "duplicate_name"
	RegistrationInvalidInput     RegistrationStatus = "invalid_input"
	RegistrationRaceLost         RegistrationStatus = "race_lost"
	RegistrationStoreUnavailable RegistrationStatus = "store_unavailable"
)

type RegistrationOutcome struct {
	Status     RegistrationStatus `json:"status"`
	Department *Department        `json:"department,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	Err        error              `json:"-"`
}

// Rejected reports whether the department was not registered.
func (o RegistrationOutcome) Rejected() bool {
	return o.Status != RegistrationSuccess
}

func (o RegistrationOutcome) Message() string {
	switch o.Status {
	case RegistrationSuccess:
		return "New Department added!"
	case RegistrationDuplicateName, RegistrationInvalidInput, RegistrationRaceLost:
		return "Department rejected: " + o.Reason
	case RegistrationStoreUnavailable:
		return "Catalog store unavailable, department not added"
	default:
		return string(o.Status)
	}
}
