package models

import "gorm.io/gorm"

type Delivery struct {
	gorm.Model
	UserID         string `json:"userId"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	StreetAddress  string `json:"streetAddress"`
	StreetAddress2 string `json:"streetAddress2"`
	City           string `json:"city"`
	PostalCode     string `json:"postalCode"`
	ContactNumber  string `json:"contactNumber"`
	Email          string `json:"email"`
}
