package model

import (
	"time"

	"github.com/google/uuid"
)

// AddressType labels an address book entry.
type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

// DefaultCountry is used when an address is saved without a country.
const DefaultCountry = "Turkey"

// Address is an entry in a user's address book.
type Address struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	UserID        uuid.UUID   `json:"userId" db:"user_id"`
	Title         string      `json:"title" db:"title"`
	RecipientName string      `json:"recipientName" db:"recipient_name"`
	Phone         string      `json:"phone" db:"phone"`
	Address       string      `json:"address" db:"address"`
	City          string      `json:"city" db:"city"`
	District      string      `json:"district" db:"district"`
	PostalCode    string      `json:"postalCode" db:"postal_code"`
	Country       string      `json:"country" db:"country"`
	IsDefault     bool        `json:"isDefault" db:"is_default"`
	Type          AddressType `json:"type" db:"type"`
	CreatedAt     time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time   `json:"updatedAt" db:"updated_at"`
}

// AddressRequest is the payload for creating or replacing an address.
type AddressRequest struct {
	Title         string      `json:"title" validate:"required,max=100"`
	RecipientName string      `json:"recipientName" validate:"required,max=120"`
	Phone         string      `json:"phone" validate:"required,max=32"`
	Address       string      `json:"address" validate:"required,max=500"`
	City          string      `json:"city" validate:"required,max=100"`
	District      string      `json:"district" validate:"max=100"`
	PostalCode    string      `json:"postalCode" validate:"max=20"`
	Country       string      `json:"country" validate:"max=100"`
	IsDefault     bool        `json:"isDefault"`
	Type          AddressType `json:"type" validate:"omitempty,oneof=home work other"`
}
