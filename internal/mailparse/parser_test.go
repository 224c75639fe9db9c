package mailparse

import (
	"strings"
	"testing"

	"mail-unsubscriber/internal/models"
)

func TestDecodeHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Plain ASCII",
			input:    "Weekly digest",
			expected: "Weekly digest",
		},
		{
			name:     "UTF-8 encoded",
			input:    "=?UTF-8?Q?Derni=C3=A8res_nouveaut=C3=A9s?=",
			expected: "Dernières nouveautés",
		},
		{
			name:     "ISO-8859-1 encoded",
			input:    "=?ISO-8859-1?Q?Caf=E9?=",
			expected: "Café",
		},
		{
			name:     "Base64 encoded",
			input:    "=?UTF-8?B?SGVsbG8gV29ybGQ=?=",
			expected: "Hello World",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHeader(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeHeader() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("DecodeHeader() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExtractEmailAddress(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple email",
			input:    "news@shop.example.com",
			expected: "news@shop.example.com",
		},
		{
			name:     "Email with name",
			input:    "Shop <news@shop.example.com>",
			expected: "news@shop.example.com",
		},
		{
			name:     "Email with quotes",
			input:    `"Shop Team" <news@shop.example.com>`,
			expected: "news@shop.example.com",
		},
		{
			name:     "No email",
			input:    "Just some text",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractEmailAddress(tt.input)
			if got != tt.expected {
				t.Errorf("extractEmailAddress() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func raw(id string, lines ...string) *models.RawMessage {
	return &models.RawMessage{ID: models.MessageID(id), Bytes: []byte(strings.Join(lines, "\r\n"))}
}

func TestDecode_SimpleHTML(t *testing.T) {
	msg, err := Decode(raw("1",
		"From: Shop <news@shop.example.com>",
		"Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=",
		"Content-Type: text/html; charset=utf-8",
		"",
		`<a href="https://shop.example.com/unsubscribe">stop</a>`,
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if msg.From != "news@shop.example.com" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.Subject != "Hello World" {
		t.Errorf("Subject = %q", msg.Subject)
	}

	simple, ok := msg.Body.(SimpleBody)
	if !ok {
		t.Fatalf("Expected SimpleBody, got %T", msg.Body)
	}
	if simple.ContentType != "text/html" {
		t.Errorf("ContentType = %q", simple.ContentType)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok || !strings.Contains(html, "/unsubscribe") {
		t.Errorf("ExtractHTMLBody() = %q, %v", html, ok)
	}
}

func TestDecode_SimplePlainTextHasNoHTML(t *testing.T) {
	msg, err := Decode(raw("2",
		"Subject: plain",
		"",
		"To unsubscribe reply STOP",
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if _, ok := ExtractHTMLBody(msg.Body); ok {
		t.Error("Expected no HTML body for a text/plain message")
	}
}

func TestDecode_NestedMultipartHTMLAfterPlain(t *testing.T) {
	msg, err := Decode(raw("3",
		"Subject: nested",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain version",
		"--inner",
		"Content-Type: text/html; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		`<a href=3D"https://list.example.com/Unsubscribe?u=3D1">out</a>`,
		"--inner--",
		"--outer",
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQK",
		"--outer--",
		"",
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	multi, ok := msg.Body.(MultipartBody)
	if !ok {
		t.Fatalf("Expected MultipartBody, got %T", msg.Body)
	}
	if len(multi.Parts) != 3 {
		t.Fatalf("Expected 3 leaf parts, got %d", len(multi.Parts))
	}
	if multi.Parts[0].ContentType != "text/plain" {
		t.Errorf("First part = %q", multi.Parts[0].ContentType)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok {
		t.Fatal("Expected HTML part to be found")
	}
	links := ExtractUnsubscribeLinks(html)
	if len(links) != 1 || links[0] != "https://list.example.com/Unsubscribe?u=1" {
		t.Errorf("links = %v", links)
	}
}

func TestDecode_CharsetIsConverted(t *testing.T) {
	msg, err := Decode(raw("4",
		"Content-Type: text/html; charset=iso-8859-1",
		"Content-Transfer-Encoding: quoted-printable",
		"",
		`<p>Caf=E9</p><a href=3D"https://x.example/unsubscribe">d=E9sabonner</a>`,
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok {
		t.Fatal("Expected HTML body")
	}
	if !strings.Contains(html, "Café") || !strings.Contains(html, "désabonner") {
		t.Errorf("Expected payload converted to UTF-8, got %q", html)
	}
}

func TestDecode_UnknownCharsetKeepsPayload(t *testing.T) {
	msg, err := Decode(raw("5",
		"Content-Type: text/html; charset=x-made-up",
		"",
		`<a href="https://x.example/unsubscribe">bye</a>`,
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok || len(ExtractUnsubscribeLinks(html)) != 1 {
		t.Errorf("Expected raw payload to remain usable, got %q", html)
	}
}

func TestDecode_MultipartWithoutHTML(t *testing.T) {
	msg, err := Decode(raw("6",
		"Content-Type: multipart/mixed; boundary=b",
		"",
		"--b",
		"Content-Type: text/plain",
		"",
		"unsubscribe by replying",
		"--b--",
		"",
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if _, ok := ExtractHTMLBody(msg.Body); ok {
		t.Error("Expected no HTML part")
	}
}

func TestDecode_BrokenHeaders(t *testing.T) {
	_, err := Decode(raw("7", "this is not a header line", "", "body"))
	if err == nil {
		t.Fatal("Expected an error for a malformed header block")
	}
	if !IsDecodeError(err) {
		t.Errorf("Expected DecodeError, got %T", err)
	}
}

func TestDecode_CorruptAttachmentKeepsHTML(t *testing.T) {
	msg, err := Decode(raw("8",
		"Content-Type: multipart/mixed; boundary=XX",
		"",
		"--XX",
		"Content-Type: text/html; charset=utf-8",
		"",
		`<a href="https://list.example.com/unsubscribe?id=8">Unsubscribe</a>`,
		"--XX",
		"Content-Type: application/pdf",
		"Content-Transfer-Encoding: base64",
		"",
		"!!!not*base64!!!",
		"--XX--",
		"",
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok {
		t.Fatal("Expected the HTML part to survive a corrupt attachment")
	}
	links := ExtractUnsubscribeLinks(html)
	if len(links) != 1 || links[0] != "https://list.example.com/unsubscribe?id=8" {
		t.Errorf("Unexpected links %v", links)
	}
}

func TestDecode_MissingClosingBoundaryKeepsHTML(t *testing.T) {
	msg, err := Decode(raw("9",
		"Content-Type: multipart/alternative; boundary=XX",
		"",
		"--XX",
		"Content-Type: text/plain",
		"",
		"plain version",
		"--XX",
		"Content-Type: text/html; charset=utf-8",
		"",
		`<a href="https://list.example.com/unsubscribe?id=9">Unsubscribe</a>`,
		"",
	))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	html, ok := ExtractHTMLBody(msg.Body)
	if !ok {
		t.Fatal("Expected the HTML part of a truncated multipart")
	}
	if !strings.Contains(html, "https://list.example.com/unsubscribe?id=9") {
		t.Errorf("HTML part lost its link: %q", html)
	}
}
