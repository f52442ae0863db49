package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// WalletErrorKind is the closed set of wallet failure categories.
type WalletErrorKind string

const (
	WalletErrorExecutionReverted WalletErrorKind = "execution_reverted"
	WalletErrorAccountNotFound   WalletErrorKind = "account_not_found"
	WalletErrorNotConnected      WalletErrorKind = "not_connected"
	WalletErrorLibrary           WalletErrorKind = "library"
	WalletErrorTimeout           WalletErrorKind = "timeout"
	WalletErrorUnrecognized      WalletErrorKind = "unrecognized"
)

func (k WalletErrorKind) Valid() bool {
	switch k {
	case WalletErrorExecutionReverted, WalletErrorAccountNotFound, WalletErrorNotConnected,
		WalletErrorLibrary, WalletErrorTimeout, WalletErrorUnrecognized:
		return true
	}
	return false
}

// WalletError is a wallet library failure. Details carries revert data or
// timeout detail when the library provides it.
type WalletError struct {
	Kind    WalletErrorKind `json:"kind"`
	Message string          `json:"message"`
	Details string          `json:"details,omitempty"`
}

func NewWalletError(kind WalletErrorKind, message, details string) *WalletError {
	return &WalletError{Kind: kind, Message: message, Details: details}
}

func (e *WalletError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsWalletError finds a *WalletError in err's chain.
func AsWalletError(err error) (*WalletError, bool) {
	var we *WalletError
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}
