package domain

import "errors"

var (
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionNotActive  = errors.New("auction is not active")
	ErrBidTooLow         = errors.New("bid amount is below the minimum bid")
	ErrInvalidAmount     = errors.New("bid amount must be a positive integer")
	ErrContention        = errors.New("auction is locked by a concurrent request")
	ErrInvalidTransition = errors.New("invalid auction state transition")
	ErrInvalidWindow     = errors.New("auction end time must be after start time")
	ErrUserNotFound      = errors.New("user not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInAuction  = errors.New("product is already in an auction")
)
