package imap

import (
	"errors"
	"fmt"

	"mail-unsubscriber/internal/models"
)

// ConnectionError is returned when the mail host cannot be reached
type ConnectionError struct {
	Host string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("IMAP connection error (%s): %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// AuthError is returned when the server rejects the credentials. Username stays out of the message.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// FolderNotFoundError is returned when a folder cannot be selected
type FolderNotFoundError struct {
	Folder string
	Err    error
}

func (e *FolderNotFoundError) Error() string {
	return fmt.Sprintf("folder %q not found: %v", e.Folder, e.Err)
}

func (e *FolderNotFoundError) Unwrap() error { return e.Err }

// FetchError is a per-message failure; the scan continues without the message
type FetchError struct {
	ID  models.MessageID
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("error fetching message UID %s: %v", e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFatal reports whether err must abort the run
func IsFatal(err error) bool {
	var connErr *ConnectionError
	var authErr *AuthError
	var folderErr *FolderNotFoundError
	return errors.As(err, &connErr) || errors.As(err, &authErr) || errors.As(err, &folderErr)
}

// IsFetchError reports whether err (or any error in its chain) is a FetchError
func IsFetchError(err error) bool {
	var fetchErr *FetchError
	return errors.As(err, &fetchErr)
}
