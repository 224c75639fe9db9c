package mailparse

import (
	"errors"
	"fmt"

	"mail-unsubscriber/internal/models"
)

// DecodeError is a per-message failure to parse the MIME structure
type DecodeError struct {
	ID  models.MessageID
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding message UID %s: %v", e.ID, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err (or any error in its chain) is a DecodeError
func IsDecodeError(err error) bool {
	var decodeErr *DecodeError
	return errors.As(err, &decodeErr)
}
