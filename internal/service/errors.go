package service

import (
	"github.com/harborworks/drydock/internal/domain"
)

// Order errors
var (
	ErrOrderNotFound    = domain.ErrOrderNotFound
	ErrOrderTombstone   = domain.ErrOrderTombstone
	ErrLineItemNotFound = domain.ErrLineItemNotFound
)

// Ledger errors
var (
	ErrTransactionNotFound = domain.ErrTransactionNotFound
	ErrDuplicateReference  = domain.ErrDuplicateReference
	ErrOverAuthorization   = domain.ErrOverAuthorization
	ErrInvalidTransition   = domain.ErrInvalidTransition
)

// Validation errors - use domain.EINVALID
var (
	ErrInvalidAmount    = domain.Errorf(domain.EINVALID, "", "Amount must be greater than 0")
	ErrMissingReference = domain.Errorf(domain.EINVALID, "", "Payment reference required for gateway transactions")
	ErrUnknownKind      = domain.Errorf(domain.EINVALID, "", "Unknown transaction kind")
	ErrNotRefundable    = domain.Errorf(domain.EINVALID, "", "Only succeeded payments can be refunded")
)
