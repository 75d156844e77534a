package mailer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-gomail/gomail"
)

type fakeDialer struct {
	err      error
	messages []*gomail.Message
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	f.messages = append(f.messages, m...)
	return f.err
}

func testMessage() *Message {
	return &Message{
		From:    "office@society.example",
		To:      "a@x.com",
		Subject: "MAINTENANCE BILL & SUPPLEMENTARY BILL FOR THE MONTH OF AUG 25",
		Body:    "Dear Resident,\n\nPlease find attached your flat document for A101.\n",
		Attachments: []Attachment{
			{Filename: "A101.pdf", ContentType: "application/pdf", Content: []byte("bill-a")},
		},
	}
}

func TestSMTPTransportBuildsMIMEMessage(t *testing.T) {
	fake := &fakeDialer{}
	tr := &SMTPTransport{dialer: fake}

	if err := tr.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("expected one message handed to the dialer, got %d", len(fake.messages))
	}

	var buf bytes.Buffer
	if _, err := fake.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{
		"From: office@society.example",
		"To: a@x.com",
		"Subject: MAINTENANCE BILL & SUPPLEMENTARY BILL FOR THE MONTH OF AUG 25",
		"Content-Type: application/pdf",
		`filename="A101.pdf"`,
		"YmlsbC1h", // base64("bill-a")
		"Dear Resident,",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("expected %q in message:\n%s", want, raw)
		}
	}
}

func TestSMTPTransportWrapsRelayErrors(t *testing.T) {
	relayErr := errors.New("535 authentication failed")
	tr := &SMTPTransport{dialer: &fakeDialer{err: relayErr}}

	err := tr.Send(context.Background(), testMessage())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !errors.Is(err, relayErr) {
		t.Fatalf("expected relay error to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "a@x.com") {
		t.Fatalf("expected recipient in error, got %q", err)
	}
}

func TestSMTPTransportSkipsDialWhenCancelledOrInvalid(t *testing.T) {
	fake := &fakeDialer{}
	tr := &SMTPTransport{dialer: fake}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tr.Send(ctx, testMessage()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	msg := testMessage()
	msg.To = ""
	if err := tr.Send(context.Background(), msg); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if len(fake.messages) != 0 {
		t.Fatalf("expected no dial attempts, got %d", len(fake.messages))
	}
}

func TestNewSMTPTransportConfiguresDialer(t *testing.T) {
	tr := NewSMTPTransport(SMTPConfig{Host: " smtp.gmail.com ", Port: 465, Username: "u", Password: "p"})
	d, ok := tr.dialer.(*gomail.Dialer)
	if !ok {
		t.Fatalf("expected *gomail.Dialer, got %T", tr.dialer)
	}
	if d.Host != "smtp.gmail.com" || d.Port != 465 || !d.SSL {
		t.Fatalf("unexpected dialer: host=%q port=%d ssl=%v", d.Host, d.Port, d.SSL)
	}
	if d.TLSConfig == nil || d.TLSConfig.ServerName != "smtp.gmail.com" {
		t.Fatalf("unexpected TLS config: %+v", d.TLSConfig)
	}

	starttls := NewSMTPTransport(SMTPConfig{Host: "relay.example", Port: 587}).dialer.(*gomail.Dialer)
	if starttls.SSL {
		t.Fatal("expected STARTTLS (SSL=false) on port 587")
	}
}
