package services

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// VerificationEmail is the message sent after registration.
type VerificationEmail struct {
	To   string `json:"email"`
	Name string `json:"name"`
	Link string `json:"verification_link"`
}

type Mailer interface {
	SendVerificationEmail(ctx context.Context, msg VerificationEmail) error
}

// SMTPMailer delivers mail directly through an SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	send     func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	if from == "" {
		from = username
	}
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) SendVerificationEmail(_ context.Context, msg VerificationEmail) error {
	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	body := buildMessage(m.from, msg.To, "Verify your email", verificationHTML(msg))
	if err := m.send(m.host+":"+m.port, auth, m.from, []string{msg.To}, body); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

func verificationHTML(msg VerificationEmail) string {
	link := html.EscapeString(msg.Link)
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>Please verify your email by clicking the link below:</p>
<p><a href="%s">Verify Email</a></p>
<p>The link expires in one hour.</p>`, html.EscapeString(msg.Name), link)
}

// EventPublisher publishes a JSON event to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topicArn, eventType string, payload any) error
}

// SNSMailer hands the verification request to a notification consumer
// subscribed to topicArn instead of sending mail itself.
type SNSMailer struct {
	publisher EventPublisher
	topicArn  string
}

const EventVerificationRequested = "user.verification_requested"

func NewSNSMailer(publisher EventPublisher, topicArn string) *SNSMailer {
	return &SNSMailer{publisher: publisher, topicArn: topicArn}
}

func (m *SNSMailer) SendVerificationEmail(ctx context.Context, msg VerificationEmail) error {
	return m.publisher.PublishEvent(ctx, m.topicArn, EventVerificationRequested, msg)
}

// LogMailer only logs the link. For local development.
type LogMailer struct{}

func (LogMailer) SendVerificationEmail(_ context.Context, msg VerificationEmail) error {
	zap.L().Info("Verification email", zap.String("to", msg.To), zap.String("link", msg.Link))
	return nil
}
