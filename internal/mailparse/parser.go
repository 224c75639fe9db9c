package mailparse

import (
	"bytes"
	"io"
	"mime"
	"regexp"
	"strings"

	"mail-unsubscriber/internal/logging"
	"mail-unsubscriber/internal/models"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

const defaultContentType = "text/plain"

var emailAddressRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// Body is either a SimpleBody or a MultipartBody
type Body interface {
	isBody()
}

// Part is a decoded leaf of a MIME tree
type Part struct {
	ContentType string
	Payload     []byte
}

// SimpleBody is a message without multipart structure
type SimpleBody struct {
	Part
}

// MultipartBody holds every leaf part, depth first, with nested multiparts flattened
type MultipartBody struct {
	Parts []Part
}

func (SimpleBody) isBody()    {}
func (MultipartBody) isBody() {}

// Message is the parsed form of a RawMessage
type Message struct {
	ID      models.MessageID
	From    string
	Subject string
	Body    Body
}

// Decode parses the MIME structure of raw and decodes every leaf payload using its
// transfer encoding and charset. Unknown charsets or encodings keep the undecoded payload.
func Decode(raw *models.RawMessage) (*Message, error) {
	entity, err := message.Read(bytes.NewReader(raw.Bytes))
	if err != nil && !isRecoverable(err) {
		return nil, &DecodeError{ID: raw.ID, Err: err}
	}

	msg := &Message{
		ID:   raw.ID,
		From: extractEmailAddress(entity.Header.Get("From")),
	}

	if subject, err := DecodeHeader(entity.Header.Get("Subject")); err == nil {
		msg.Subject = subject
	} else {
		msg.Subject = entity.Header.Get("Subject")
	}

	if entity.MultipartReader() == nil {
		payload, err := io.ReadAll(entity.Body)
		if err != nil && len(payload) == 0 {
			return nil, &DecodeError{ID: raw.ID, Err: err}
		}
		msg.Body = SimpleBody{Part{ContentType: contentType(entity), Payload: payload}}
		return msg, nil
	}

	var parts []Part
	if err := collectParts(entity, &parts); err != nil {
		return nil, &DecodeError{ID: raw.ID, Err: err}
	}
	msg.Body = MultipartBody{Parts: parts}
	return msg, nil
}

func collectParts(entity *message.Entity, parts *[]Part) error {
	mr := entity.MultipartReader()
	if mr == nil {
		payload, err := io.ReadAll(entity.Body)
		if err != nil {
			// keep what was decoded before a truncated or corrupt part ends
			if len(payload) == 0 {
				logging.Log.Warnf("Skipping unreadable %s part: %v", contentType(entity), err)
				return nil
			}
			logging.Log.Warnf("Keeping partial %s part: %v", contentType(entity), err)
		}
		*parts = append(*parts, Part{ContentType: contentType(entity), Payload: payload})
		return nil
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			return nil
		}
		if err != nil && !isRecoverable(err) {
			if len(*parts) > 0 {
				logging.Log.Warnf("Multipart structure ends early, keeping %d part(s): %v", len(*parts), err)
				return nil
			}
			return err
		}
		if err := collectParts(p, parts); err != nil {
			return err
		}
	}
}

// ExtractHTMLBody returns the first text/html part of a multipart body, or the payload of a
// simple body with an HTML-compatible type. A message without HTML yields ok == false.
func ExtractHTMLBody(body Body) (html string, ok bool) {
	switch b := body.(type) {
	case SimpleBody:
		if isHTMLCompatible(b.ContentType) {
			return string(b.Payload), true
		}
	case MultipartBody:
		for _, part := range b.Parts {
			if part.ContentType == "text/html" {
				return string(part.Payload), true
			}
		}
	}
	return "", false
}

func isHTMLCompatible(contentType string) bool {
	return contentType == "text/html" || contentType == "application/xhtml+xml"
}

func contentType(entity *message.Entity) string {
	if strings.TrimSpace(entity.Header.Get("Content-Type")) == "" {
		return defaultContentType
	}
	t, _, err := entity.Header.ContentType()
	if err != nil {
		return defaultContentType
	}
	return strings.ToLower(t)
}

func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

// Simple regex to extract email address from "From" header, which may contain name and email
func extractEmailAddress(fromHeader string) string {
	return emailAddressRe.FindString(fromHeader)
}

// DecodeHeader decodes MIME-encoded headers (e.g., "=?UTF-8?B?...?=") to plain text
func DecodeHeader(encoded string) (string, error) {
	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(encoded)
	if err != nil {
		return "", err
	}
	return decoded, nil
}
