package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a fatal configuration problem detected before any mailbox connection
type Error struct {
	Missing []string
	Err     error
}

func (e *Error) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("config error: missing required settings: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err (or any error in its chain) is a config Error
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}
