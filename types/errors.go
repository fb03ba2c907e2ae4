package types

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Wrap them with fmt.Errorf("%w: ...")
// and test with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrNoChangeRequested = errors.New("no fields to update")
	ErrConflict          = errors.New("conflict")
	ErrStore             = errors.New("store error")
)

// Stable kind names reported to API callers.
const (
	KindValidation        = "validation"
	KindNotFound          = "not_found"
	KindDuplicateAccount  = "duplicate_account"
	KindInvalidCredential = "invalid_credential"
	KindNoChangeRequested = "no_change"
	KindConflict          = "conflict"
	KindStore             = "store_error"
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, KindValidation},
	{ErrNotFound, KindNotFound},
	{ErrDuplicateAccount, KindDuplicateAccount},
	{ErrInvalidCredential, KindInvalidCredential},
	{ErrNoChangeRequested, KindNoChangeRequested},
	{ErrConflict, KindConflict},
	{ErrStore, KindStore},
}

// Kind returns the stable kind name of err. Errors that carry no kind are
// reported as store errors.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return KindStore
}

// Validationf returns a validation error with a formatted reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundf returns a not-found error naming the missing record.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// StoreError marks err as an underlying store failure. Errors that already
// carry a kind are returned unchanged.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrStore, err)
}
