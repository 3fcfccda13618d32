package service

import "errors"

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("insufficient permissions")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrDuplicateReview = errors.New("you have already reviewed this product")
	ErrCartBusy        = errors.New("cart is being updated by another request")
)
