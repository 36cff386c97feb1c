package notify

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/mail"
	"strings"
	texttemplate "text/template"
)

// Message is one outgoing email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// VerificationRequest is the body of POST /send-verification-code.
type VerificationRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Username string `json:"username"`
}

// Normalize trims the fields and validates them.
func (r *VerificationRequest) Normalize() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Code = strings.TrimSpace(r.Code)
	r.Username = strings.TrimSpace(r.Username)

	addr, err := mail.ParseAddress(r.Email)
	if err != nil || addr.Address != r.Email {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, r.Email)
	}
	if len(r.Code) < 4 || len(r.Code) > 12 {
		return fmt.Errorf("%w: must be 4 to 12 characters", ErrInvalidCode)
	}
	for _, c := range r.Code {
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return fmt.Errorf("%w: must be alphanumeric", ErrInvalidCode)
		}
	}
	return nil
}

const verificationSubject = "Your Flofy verification code"

var verificationText = texttemplate.Must(texttemplate.New("text").Parse(
	`Hi {{with .Username}}{{.}}{{else}}there{{end}},

Your verification code is {{.Code}}

Enter it in the chat window to continue. If you did not request this code you can ignore this email.
`))

var verificationHTML = htmltemplate.Must(htmltemplate.New("html").Parse(
	`<p>Hi {{with .Username}}{{.}}{{else}}there{{end}},</p>
<p>Your verification code is</p>
<p style="font-size:28px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>Enter it in the chat window to continue. If you did not request this code you can ignore this email.</p>
`))

// VerificationMessage renders the verification email for a normalized request.
func VerificationMessage(req VerificationRequest) (Message, error) {
	var text, html bytes.Buffer
	if err := verificationText.Execute(&text, req); err != nil {
		return Message{}, fmt.Errorf("render text body: %w", err)
	}
	if err := verificationHTML.Execute(&html, req); err != nil {
		return Message{}, fmt.Errorf("render html body: %w", err)
	}
	return Message{
		To:      req.Email,
		ToName:  req.Username,
		Subject: verificationSubject,
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
