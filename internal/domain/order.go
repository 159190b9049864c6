package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Customer struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

type BillingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

type PaymentCard struct {
	Number     string `json:"card_number"`
	Expiration string `json:"expiration"` // MM/YY
	CVV        string `json:"cvv"`
}

// OrderInput is one checkout submission as received at the boundary,
// before an id or arrival sequence is assigned.
type OrderInput struct {
	ResourceID     string         `json:"resource_id"`
	Customer       Customer       `json:"customer"`
	Billing        BillingAddress `json:"billing_address"`
	Payment        PaymentCard    `json:"payment"`
	ShippingMethod string         `json:"shipping_method"`
}

// Validate rejects malformed input before it reaches the classifiers.
func (in OrderInput) Validate() error {
	if strings.TrimSpace(in.ResourceID) == "" {
		return ErrResourceRequired
	}
	if strings.TrimSpace(in.Customer.Name) == "" {
		return ErrCustomerNameRequired
	}
	return nil
}

type Order struct {
	OrderID        uuid.UUID      `json:"order_id"`
	Seq            uint64         `json:"seq"`
	ResourceID     string         `json:"resource_id"`
	Customer       Customer       `json:"customer"`
	Billing        BillingAddress `json:"billing_address"`
	Payment        PaymentCard    `json:"payment"`
	ShippingMethod string         `json:"shipping_method"`
	SubmittedAt    time.Time      `json:"submitted_at"`
}
