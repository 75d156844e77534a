package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"billmailer/internal/attachments"
	"billmailer/internal/flatkey"
)

const (
	// DefaultSubjectTemplate is the subject line the society has always used.
	DefaultSubjectTemplate = "MAINTENANCE BILL & SUPPLEMENTARY BILL FOR THE MONTH OF {{.Month}} {{.Year}}"
	// DefaultBodyTemplate is the plain-text body sent with every bill.
	DefaultBodyTemplate = "Dear Resident,\n\nPlease find attached your flat document for {{.FlatKey}}.\n\nRegards,\n{{.Society}}.\n"
)

var (
	// ErrNoRecipient indicates a message without a recipient address.
	ErrNoRecipient = errors.New("message must have a recipient")
	// ErrNoAttachments indicates a message without any bill attached.
	ErrNoAttachments = errors.New("message must have at least one attachment")
)

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a fully composed email ready for a Transport.
type Message struct {
	From        string
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Validate checks the fields every transport relies on.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	if len(m.Attachments) == 0 {
		return ErrNoAttachments
	}
	return nil
}

// TemplateData is the value subject and body templates are executed with.
type TemplateData struct {
	FlatKey string
	Month   string
	Year    string
	Society string
}

// ComposerConfig configures message composition for one billing cycle.
type ComposerConfig struct {
	From            string
	Society         string
	Month           string
	Year            string
	SubjectTemplate string
	BodyTemplate    string
}

// Composer renders the subject and body for each resident's message.
type Composer struct {
	from    string
	data    TemplateData
	subject *template.Template
	body    *template.Template
}

// NewComposer parses the configured templates and renders each once with the
// cycle data, so a template naming an unknown field is rejected here. Blank
// templates fall back to the defaults. The month is upper-cased ("aug" becomes "AUG").
func NewComposer(cfg ComposerConfig) (*Composer, error) {
	subjectText := cfg.SubjectTemplate
	if strings.TrimSpace(subjectText) == "" {
		subjectText = DefaultSubjectTemplate
	}
	bodyText := cfg.BodyTemplate
	if strings.TrimSpace(bodyText) == "" {
		bodyText = DefaultBodyTemplate
	}

	subject, err := template.New("subject").Option("missingkey=error").Parse(subjectText)
	if err != nil {
		return nil, fmt.Errorf("parse subject template: %w", err)
	}
	body, err := template.New("body").Option("missingkey=error").Parse(bodyText)
	if err != nil {
		return nil, fmt.Errorf("parse body template: %w", err)
	}

	c := &Composer{
		from: strings.TrimSpace(cfg.From),
		data: TemplateData{
			Month:   cases.Upper(language.Und).String(strings.TrimSpace(cfg.Month)),
			Year:    strings.TrimSpace(cfg.Year),
			Society: strings.TrimSpace(cfg.Society),
		},
		subject: subject,
		body:    body,
	}

	// Unknown fields only surface on Execute; render once up front so they
	// fail here instead of on every message.
	if _, err := render(subject, c.data); err != nil {
		return nil, fmt.Errorf("execute subject template: %w", err)
	}
	if _, err := render(body, c.data); err != nil {
		return nil, fmt.Errorf("execute body template: %w", err)
	}
	return c, nil
}

// Subject renders the subject line. It does not depend on the recipient.
func (c *Composer) Subject() (string, error) {
	return render(c.subject, c.data)
}

// Compose builds the message for one flat, attaching every document as a PDF
// named by its original filename.
func (c *Composer) Compose(to string, key flatkey.Key, docs []attachments.Document) (*Message, error) {
	data := c.data
	data.FlatKey = key.String()

	subject, err := render(c.subject, data)
	if err != nil {
		return nil, fmt.Errorf("render subject: %w", err)
	}
	body, err := render(c.body, data)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	msg := &Message{
		From:        c.from,
		To:          strings.TrimSpace(to),
		Subject:     strings.TrimSpace(subject),
		Body:        body,
		Attachments: make([]Attachment, 0, len(docs)),
	}
	for _, doc := range docs {
		msg.Attachments = append(msg.Attachments, Attachment{
			Filename:    doc.Name,
			ContentType: attachments.MediaType,
			Content:     doc.Content,
		})
	}
	return msg, nil
}

func render(tmpl *template.Template, data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
