package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction and ErrClassification are recovered locally: the record
	// is persisted as failed instead of being dropped.
	ErrExtraction     = errors.New("extraction failure")
	ErrClassification = errors.New("classification failure")

	// ErrValidation surfaces to the caller immediately; no record is created.
	ErrValidation = errors.New("validation failure")

	ErrDocumentNotFound = errors.New("document not found")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
