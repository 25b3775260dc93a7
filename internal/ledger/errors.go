package ledger

import (
	"errors"
	"fmt"
)

// Kind categorizes ledger errors. The set is closed.
type Kind string

const (
	// KindUnauthorized indicates the sender is not the configured admin.
	KindUnauthorized Kind = "UNAUTHORIZED"

	// KindConfigInvalid indicates a malformed address or inconsistent parameters.
	KindConfigInvalid Kind = "CONFIG_INVALID"

	// KindAlreadyClaimed indicates the claimant already holds a claim record.
	KindAlreadyClaimed Kind = "ALREADY_CLAIMED"

	// KindSupplyExhausted indicates a reserve would exceed total supply.
	KindSupplyExhausted Kind = "SUPPLY_EXHAUSTED"

	// KindVersionMismatch indicates migration from a different contract kind.
	KindVersionMismatch Kind = "VERSION_MISMATCH"

	// KindStorageError indicates a persistence or codec failure.
	KindStorageError Kind = "STORAGE_ERROR"
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{
	KindUnauthorized,
	KindConfigInvalid,
	KindAlreadyClaimed,
	KindSupplyExhausted,
	KindVersionMismatch,
	KindStorageError,
}

// Error is the only error type returned across the ledger boundary.
//
// Error carries the Kind callers branch on, plus only the attributes of the
// failing request (never internal state).
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Address is the address the failing request concerned, if any.
	Address Address

	// Details contains additional request attributes.
	Details map[string]string

	// Err is the underlying cause (storage errors only).
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Address != "" {
		msg = fmt.Sprintf("%s (address=%s)", msg, e.Address)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, ErrAlreadyClaimed)
// works for every claimant.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Address == ""
}

// Sentinels for errors.Is matching by kind.
var (
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrConfigInvalid   = &Error{Kind: KindConfigInvalid}
	ErrAlreadyClaimed  = &Error{Kind: KindAlreadyClaimed}
	ErrSupplyExhausted = &Error{Kind: KindSupplyExhausted}
	ErrVersionMismatch = &Error{Kind: KindVersionMismatch}
	ErrStorage         = &Error{Kind: KindStorageError}
)

// KindOf returns the Kind of err, or "" if err is not a ledger error.
// Uses errors.As to handle wrapped errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}

// IsKind reports whether err is a ledger error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// NewUnauthorized creates an UNAUTHORIZED error for sender.
func NewUnauthorized(sender Address) *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Message: "sender is not the admin",
		Address: sender,
	}
}

// NewConfigInvalid creates a CONFIG_INVALID error.
func NewConfigInvalid(field, reason string) *Error {
	return &Error{
		Kind:    KindConfigInvalid,
		Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]string{"field": field},
	}
}

// NewInvalidAddress creates a CONFIG_INVALID error for a malformed address.
func NewInvalidAddress(field string, addr Address, cause error) *Error {
	e := NewConfigInvalid(field, cause.Error())
	e.Address = addr
	return e
}

// NewAlreadyClaimed creates an ALREADY_CLAIMED error.
func NewAlreadyClaimed(addr Address) *Error {
	return &Error{
		Kind:    KindAlreadyClaimed,
		Message: "address already claimed",
		Address: addr,
	}
}

// NewSupplyExhausted creates a SUPPLY_EXHAUSTED error.
func NewSupplyExhausted(requested Amount) *Error {
	return &Error{
		Kind:    KindSupplyExhausted,
		Message: "not enough tokens left for this claim",
		Details: map[string]string{"requested": requested.String()},
	}
}

// NewVersionMismatch creates a VERSION_MISMATCH error.
func NewVersionMismatch(previous string) *Error {
	return &Error{
		Kind:    KindVersionMismatch,
		Message: fmt.Sprintf("cannot migrate from different contract type: %s", previous),
		Details: map[string]string{"previous_contract": previous},
	}
}

// NewStorageError wraps a persistence failure.
func NewStorageError(op string, err error) *Error {
	return &Error{
		Kind:    KindStorageError,
		Message: op,
		Err:     err,
	}
}

// AsLedgerError classifies err: ledger errors pass through, anything else
// becomes STORAGE_ERROR.
func AsLedgerError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return le
	}
	return NewStorageError(op, err)
}
