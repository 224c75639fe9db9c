package imap

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/models"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"
)

// UnsubscribeToken is matched case-insensitively by the server against message bodies
const UnsubscribeToken = "UNSUBSCRIBE"

const defaultTimeout = 30 * time.Second

var errNotConnected = errors.New("not connected")

// Dialer opens an implicit-TLS connection to addr
type Dialer func(ctx context.Context, addr string, timeout time.Duration) (Backend, error)

type StandardClient struct {
	mu      sync.Mutex
	backend Backend
	dial    Dialer
	timeout time.Duration
}

type Option func(*StandardClient)

// WithTimeout bounds dialing and every IMAP command
func WithTimeout(timeout time.Duration) Option {
	return func(c *StandardClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithDialer replaces the TLS dialer, mostly for tests
func WithDialer(dial Dialer) Option {
	return func(c *StandardClient) {
		c.dial = dial
	}
}

// NewStandardClient creates a new StandardClient with a default timeout of 30 seconds for IMAP operations
func NewStandardClient(opts ...Option) *StandardClient {
	c := &StandardClient{
		dial:    dialTLS,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTLSConfig dials with the given TLS configuration, e.g. to trust a private CA
func WithTLSConfig(config *tls.Config) Option {
	return func(c *StandardClient) {
		c.dial = tlsDialer(config)
	}
}

func dialTLS(ctx context.Context, addr string, timeout time.Duration) (Backend, error) {
	return tlsDialer(nil)(ctx, addr, timeout)
}

// tlsDialer bounds the TCP connect, the TLS handshake and the server greeting by timeout and ctx
func tlsDialer(config *tls.Config) Dialer {
	return func(ctx context.Context, addr string, timeout time.Duration) (Backend, error) {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: timeout},
			Config:    config,
		}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}

		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}

		type greeting struct {
			cl  *client.Client
			err error
		}
		greeted := make(chan greeting, 1)
		go func() {
			cl, err := client.New(conn)
			greeted <- greeting{cl: cl, err: err}
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		var g greeting
		select {
		case g = <-greeted:
		case <-ctx.Done():
			_ = conn.Close()
			return nil, ctx.Err()
		case <-timer.C:
			_ = conn.Close()
			return nil, errors.Errorf("no greeting from %s within %s", addr, timeout)
		}

		if g.err != nil {
			_ = conn.Close()
			return nil, errors.Wrap(g.err, "read greeting")
		}
		if state := g.cl.State(); state != imap.NotAuthenticatedState && state != imap.AuthenticatedState {
			_ = conn.Close()
			return nil, errors.Errorf("server %s refused the connection", addr)
		}

		if err := conn.SetDeadline(time.Time{}); err != nil {
			_ = conn.Close()
			return nil, err
		}
		g.cl.Timeout = timeout
		return g.cl, nil
	}
}

// Open establishes a secure connection to the IMAP server and authenticates.
// Calling Open on an open session only logs a notice.
func (c *StandardClient) Open(ctx context.Context, creds models.Credentials) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		logging.Log.Info("Already connected to server")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return &ConnectionError{Host: creds.Host, Err: err}
	}

	backend, err := c.dial(ctx, creds.Host, c.timeout)
	if err != nil {
		return &ConnectionError{Host: creds.Host, Err: err}
	}

	if err := backend.Login(creds.Username, creds.Password); err != nil {
		_ = backend.Logout()
		return &AuthError{Username: creds.Username, Err: err}
	}

	c.backend = backend
	return nil
}

// SelectFolder selects the specified mailbox read-only as the active search scope
func (c *StandardClient) SelectFolder(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return errNotConnected
	}
	if _, err := c.backend.Select(name, true); err != nil {
		return &FolderNotFoundError{Folder: name, Err: err}
	}
	return nil
}

// SearchUnsubscribeCandidates returns the UIDs of messages whose body contains the unsubscribe token.
// Matches are a prefilter only; a candidate may contain no usable link.
func (c *StandardClient) SearchUnsubscribeCandidates() ([]models.MessageID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return nil, errNotConnected
	}

	criteria := imap.NewSearchCriteria()
	criteria.Body = []string{UnsubscribeToken}

	uids, err := c.backend.UidSearch(criteria)
	if err != nil {
		return nil, errors.Wrap(err, "error searching for unsubscribe candidates")
	}

	ids := make([]models.MessageID, 0, len(uids))
	for _, uid := range uids {
		ids = append(ids, models.MessageID(strconv.FormatUint(uint64(uid), 10)))
	}
	return ids, nil
}

// FetchRaw retrieves the complete message without setting the \Seen flag.
// Fetches are serialized over the single connection.
func (c *StandardClient) FetchRaw(id models.MessageID) (*models.RawMessage, error) {
	uid, err := strconv.ParseUint(string(id), 10, 32)
	if err != nil || uid == 0 {
		return nil, &FetchError{ID: id, Err: errors.Errorf("invalid message id %q", id)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return nil, &FetchError{ID: id, Err: errNotConnected}
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uint32(uid))

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchUid}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- c.backend.UidFetch(seqSet, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}

	if err := <-done; err != nil {
		return nil, &FetchError{ID: id, Err: err}
	}

	if msg == nil {
		return nil, &FetchError{ID: id, Err: errors.New("no message retrieved")}
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, &FetchError{ID: id, Err: errors.New("message body could not be retrieved")}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{ID: id, Err: errors.Wrap(err, "read body")}
	}

	return &models.RawMessage{ID: id, Bytes: data}, nil
}

// Close logs out from the IMAP server and closes the connection.
// Only the first call talks to the server; later calls return nil.
func (c *StandardClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend == nil {
		return nil
	}
	err := c.backend.Logout()
	c.backend = nil
	if err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}
