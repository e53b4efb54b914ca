package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reconciliation records a fulfillment sequence that completed some but not
// all of its steps. Operators work through unresolved rows and retry or
// repair by hand; the orchestrator never deletes them.
type Reconciliation struct {
	gorm.Model
	Op        string         `json:"op"`
	PaymentID uint           `json:"paymentId"`
	OrderID   uint           `json:"orderId"`
	Details   datatypes.JSON `json:"details"`
	Resolved  bool           `json:"resolved"`
}
