package imap

//go:generate mockgen -source=imap.go -destination=mock/backend.go -package=mock Backend

import (
	"context"

	"mail-unsubscriber/internal/models"

	"github.com/emersion/go-imap"
)

// Session is an authenticated, single-instance connection to a mail store
type Session interface {
	Open(ctx context.Context, creds models.Credentials) error
	SelectFolder(name string) error
	SearchUnsubscribeCandidates() ([]models.MessageID, error)
	FetchRaw(id models.MessageID) (*models.RawMessage, error)
	Close() error
}

// Backend is the subset of *client.Client used by StandardClient
type Backend interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	UidSearch(criteria *imap.SearchCriteria) ([]uint32, error)
	UidFetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Logout() error
}
