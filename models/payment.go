package models

import (
	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

var validPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusPending:   {},
	PaymentStatusCompleted: {},
	PaymentStatusFailed:    {},
}

func ToPaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(s)
	if _, ok := validPaymentStatuses[status]; !ok {
		return "", apperrors.Validationf("invalid payment status: %q", s)
	}
	return status, nil
}

// Payment keeps the raw card fields out of every JSON response. CardLast4
// is populated by Redact before a payment is written to the wire.
type Payment struct {
	gorm.Model
	UserID        string        `json:"userId"`
	OrderID       uint          `json:"orderId" gorm:"index"`
	NameOnCard    string        `json:"nameOnCard"`
	CardNumber    string        `json:"-"`
	ExpiryDate    string        `json:"-"`
	CVC           string        `json:"-"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId" gorm:"uniqueIndex"`

	CardLast4 string `json:"cardLast4,omitempty" gorm:"-"`
}

func (p *Payment) Redact() {
	if len(p.CardNumber) >= 4 {
		p.CardLast4 = p.CardNumber[len(p.CardNumber)-4:]
	}
}
