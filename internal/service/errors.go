package service

import "errors"

var (
	ErrNotFound           = errors.New("error not found")
	ErrAlreadyExists      = errors.New("error already exists")
	ErrInvalidCredentials = errors.New("error invalid credentials")
	ErrInvalidQuantity    = errors.New("error invalid quantity")
	ErrInsufficientFunds  = errors.New("error insufficient funds")
	ErrInsufficientShares = errors.New("error insufficient shares")
	ErrUserBanned         = errors.New("error user is banned")
	ErrNoBuyHistory       = errors.New("error no buy history for pair")
	ErrStoreTimeout       = errors.New("error store timeout")
	ErrUpstreamFeed       = errors.New("error upstream feed unavailable")
	ErrSessionNotFound    = errors.New("error session not found")
)
