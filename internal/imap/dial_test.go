package imap_test

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	imapclient "mail-unsubscriber/internal/imap"
	"mail-unsubscriber/internal/models"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTLS returns a server config with a self-signed certificate for 127.0.0.1 and a client config trusting it
func testTLS(t *testing.T) (serverConfig, clientConfig *tls.Config) {
	t.Helper()
	srv := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	pool := x509.NewCertPool()
	pool.AddCert(srv.Certificate())
	return &tls.Config{Certificates: srv.TLS.Certificates}, &tls.Config{RootCAs: pool}
}

// silentListener accepts connections, completes the TLS handshake when config is set, and never writes
func silentListener(t *testing.T, config *tls.Config) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	if config != nil {
		ln = tls.NewListener(ln, config)
	}

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			if tlsConn, ok := conn.(*tls.Conn); ok {
				_ = tlsConn.Handshake()
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, conn := range conns {
			_ = conn.Close()
		}
	})
	return ln.Addr().String()
}

func openWithin(t *testing.T, ctx context.Context, c *imapclient.StandardClient, host string, limit time.Duration) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- c.Open(ctx, models.Credentials{Username: "owner@example.com", Password: "secret", Host: host})
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(limit):
		t.Fatalf("Open still blocked after %s", limit)
		return nil
	}
}

func TestOpen_SilentServerTimesOut(t *testing.T) {
	tests := []struct {
		name string
		tls  bool
	}{
		{name: "No TLS handshake", tls: false},
		{name: "No greeting after handshake", tls: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serverConfig, clientConfig := testTLS(t)
			if !tt.tls {
				serverConfig = nil
			}
			host := silentListener(t, serverConfig)

			c := imapclient.NewStandardClient(
				imapclient.WithTimeout(200*time.Millisecond),
				imapclient.WithTLSConfig(clientConfig),
			)
			err := openWithin(t, context.Background(), c, host, 5*time.Second)

			var connErr *imapclient.ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.True(t, imapclient.IsFatal(err))
		})
	}
}

func TestOpen_SilentServerHonoursContext(t *testing.T) {
	serverConfig, clientConfig := testTLS(t)

	for _, config := range []*tls.Config{nil, serverConfig} {
		host := silentListener(t, config)

		c := imapclient.NewStandardClient(
			imapclient.WithTimeout(time.Minute),
			imapclient.WithTLSConfig(clientConfig),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		err := openWithin(t, ctx, c, host, 5*time.Second)
		cancel()

		var connErr *imapclient.ConnectionError
		require.ErrorAs(t, err, &connErr)
	}
}

func TestStandardClient_AgainstServer(t *testing.T) {
	serverConfig, clientConfig := testTLS(t)

	be := memory.New()
	user, err := be.Login(nil, "username", "password")
	require.NoError(t, err)
	mbox, err := user.GetMailbox("INBOX")
	require.NoError(t, err)

	body := "From: Shop <news@shop.example.com>\r\n" +
		"Subject: Deals\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		`<a href="https://shop.example.com/unsubscribe">Unsubscribe</a>`
	require.NoError(t, mbox.CreateMessage(nil, time.Now(), bytes.NewBufferString(body)))

	s := server.New(be)
	s.AllowInsecureAuth = true
	ln, err := tls.Listen("tcp", "127.0.0.1:0", serverConfig)
	require.NoError(t, err)
	go func() {
		_ = s.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = s.Close()
	})

	newClient := func() *imapclient.StandardClient {
		return imapclient.NewStandardClient(
			imapclient.WithTimeout(5*time.Second),
			imapclient.WithTLSConfig(clientConfig),
		)
	}
	creds := models.Credentials{Username: "username", Password: "password", Host: ln.Addr().String()}

	t.Run("Scan", func(t *testing.T) {
		c := newClient()
		require.NoError(t, c.Open(context.Background(), creds))
		require.NoError(t, c.SelectFolder("INBOX"))

		ids, err := c.SearchUnsubscribeCandidates()
		require.NoError(t, err)
		require.Equal(t, []models.MessageID{"7"}, ids)

		raw, err := c.FetchRaw(ids[0])
		require.NoError(t, err)
		assert.Equal(t, body, string(raw.Bytes))

		assert.NoError(t, c.Close())
	})

	t.Run("Wrong password", func(t *testing.T) {
		c := newClient()
		wrong := creds
		wrong.Password = "nope"

		err := c.Open(context.Background(), wrong)
		var authErr *imapclient.AuthError
		require.ErrorAs(t, err, &authErr)
		assert.NoError(t, c.Close())
	})

	t.Run("Missing folder", func(t *testing.T) {
		c := newClient()
		require.NoError(t, c.Open(context.Background(), creds))

		err := c.SelectFolder("Newsletters")
		var folderErr *imapclient.FolderNotFoundError
		require.ErrorAs(t, err, &folderErr)
		assert.NoError(t, c.Close())
	})
}
