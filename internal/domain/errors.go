package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/sling/pkg/create2"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrUnknownNetwork is returned when a network is not configured
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrInvalidInputKind is returned when derivation arguments don't match their schema
	ErrInvalidInputKind = create2.ErrInvalidInputKind

	// ErrUnresolvedLibraryReference is returned when bytecode still carries a
	// library placeholder after linking
	ErrUnresolvedLibraryReference = errors.New("unresolved library reference")

	// ErrMissingDependency is returned when a step references a name that is
	// not resolved yet
	ErrMissingDependency = errors.New("missing dependency")

	// ErrConfirmationTimeout is returned when a transaction isn't mined in time
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrNonceGapDetected is returned when the signer still has pending
	// transactions after healing
	ErrNonceGapDetected = errors.New("nonce gap detected")

	// ErrAddressConflict is returned when recording a different address under an existing name
	ErrAddressConflict = errors.New("address conflict")

	// ErrTransactionReverted is returned for receipts with a failed status
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrSignerBusy is returned when the signer is already leased
	ErrSignerBusy = errors.New("signer busy")

	// ErrNonceInFlight is returned when reserving a nonce while another is outstanding
	ErrNonceInFlight = errors.New("nonce in flight")

	// ErrInvalidPlan is returned for malformed deployment plans
	ErrInvalidPlan = errors.New("invalid deployment plan")
)

// StepError wraps the failure of a single deployment step
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// MissingDependencyError names the unresolved reference of a step
type MissingDependencyError struct {
	Step        string
	Dependency  string
	Suggestions []string
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("missing dependency: %s references %q which is not deployed yet", e.Step, e.Dependency)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *MissingDependencyError) Unwrap() error { return ErrMissingDependency }

// UnresolvedLibraryError lists the libraries left unlinked in a step's bytecode
type UnresolvedLibraryError struct {
	Step      string
	Libraries []string
}

func (e *UnresolvedLibraryError) Error() string {
	return fmt.Sprintf("unresolved library reference in %s: %s", e.Step, strings.Join(e.Libraries, ", "))
}

func (e *UnresolvedLibraryError) Unwrap() error { return ErrUnresolvedLibraryReference }

// AddressConflictError describes an attempt to overwrite a recorded address
type AddressConflictError struct {
	Network  string
	Name     string
	Existing common.Address
	Proposed common.Address
}

func (e *AddressConflictError) Error() string {
	return fmt.Sprintf("address conflict on %s: %s is recorded as %s, refusing %s",
		e.Network, e.Name, e.Existing.Hex(), e.Proposed.Hex())
}

func (e *AddressConflictError) Unwrap() error { return ErrAddressConflict }

// NonceGapError reports pending transactions that could not be cleared
type NonceGapError struct {
	Latest  uint64
	Pending uint64
	Err     error
}

func (e *NonceGapError) Error() string {
	msg := fmt.Sprintf("nonce gap detected: confirmed %d, pending %d", e.Latest, e.Pending)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NonceGapError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNonceGapDetected}
	}
	return []error{ErrNonceGapDetected, e.Err}
}

// UnknownNetworkError carries close matches for a mistyped network name
type UnknownNetworkError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownNetworkError) Error() string {
	msg := fmt.Sprintf("unknown network %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *UnknownNetworkError) Unwrap() error { return ErrUnknownNetwork }
