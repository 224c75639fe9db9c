package models

// MessageID is the server-assigned UID of a message, rendered as a decimal string.
// It is only meaningful within the folder selected at scan time.
type MessageID string

// RawMessage holds the full RFC822 bytes of a fetched message
type RawMessage struct {
	ID    MessageID
	Bytes []byte
}

// UnsubscribeLink is a URL discovered in the body of a message
type UnsubscribeLink struct {
	URL             string
	SourceMessageID MessageID
}
