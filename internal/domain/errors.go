package domain

import "errors"

var (
	ErrResourceRequired     = errors.New("resource id required")
	ErrCustomerNameRequired = errors.New("customer name required")
	ErrUnknownResource      = errors.New("unknown resource")
	ErrInventoryUnavailable = errors.New("inventory unavailable")
	ErrOrderAlreadyExists   = errors.New("order already exists")
	ErrOrderNotFound        = errors.New("order not found")
)
