package models

import (
	"gorm.io/gorm"

	"github.com/electromart/electromart-api/apperrors"
)

type ItemStatus string

// remember to add new statuses to the itemStatusRank map
const (
	ItemStatusPending    ItemStatus = "Pending"
	ItemStatusProcessing ItemStatus = "Processing"
	ItemStatusReady      ItemStatus = "Ready"
	ItemStatusDelivered  ItemStatus = "Delivered"
)

// itemStatusRank orders the forward-only item state machine. Delivered is
// terminal.
var itemStatusRank = map[ItemStatus]int{
	ItemStatusPending:    0,
	ItemStatusProcessing: 1,
	ItemStatusReady:      2,
	ItemStatusDelivered:  3,
}

func ToItemStatus(s string) (ItemStatus, error) {
	status := ItemStatus(s)
	if _, ok := itemStatusRank[status]; !ok {
		return "", apperrors.InvalidTransitionf("invalid status value: %q", s)
	}
	return status, nil
}

func (s ItemStatus) Rank() int {
	return itemStatusRank[s]
}

type OrderItem struct {
	gorm.Model
	OrderID  uint       `json:"orderId"`
	Name     string     `json:"name"`
	Price    float64    `json:"price"`
	Quantity int        `json:"quantity"`
	Image    string     `json:"image"`
	Status   ItemStatus `json:"status"`
}

type Order struct {
	gorm.Model
	UserID     string      `json:"userId"`
	DeliveryID uint        `json:"deliveryId"`
	PaymentID  *uint       `json:"paymentId" gorm:"index"`
	Items      []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Total      float64     `json:"total"`
}
