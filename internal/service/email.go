package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"alumni-registry-backend/internal/domain"
	"alumni-registry-backend/internal/logger"
)

// OutboundEmail is one rendered message handed to a transport.
type OutboundEmail struct {
	ToEmail string                  `json:"toEmail"`
	ToName  string                  `json:"toName"`
	Subject string                  `json:"subject"`
	Body    string                  `json:"body"`
	Type    domain.NotificationKind `json:"type"`
}

// MailTransport delivers a message and returns the provider's message id.
type MailTransport interface {
	Deliver(ctx context.Context, msg OutboundEmail) (string, error)
}

type httpTransportResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Error     string `json:"error,omitempty"`
}

// HTTPTransport posts messages as JSON to a mail relay endpoint.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

func NewHTTPTransport(endpoint string, timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *HTTPTransport) Deliver(ctx context.Context, msg OutboundEmail) (string, error) {
	logger.ExternalServiceCall("MailRelay", "Send", "to", msg.ToEmail, "type", msg.Type)

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		logger.ExternalServiceResult("MailRelay", "Send", err)
		return "", fmt.Errorf("mail relay unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var out httpTransportResponse
	if len(body) > 0 {
		_ = json.Unmarshal(body, &out)
	}
	if resp.StatusCode >= 400 || !out.Success {
		err := fmt.Errorf("mail relay error: status %d: %s", resp.StatusCode, out.Error)
		logger.ExternalServiceResult("MailRelay", "Send", err)
		return "", err
	}
	logger.ExternalServiceResult("MailRelay", "Send", nil, "messageId", out.MessageID)
	return out.MessageID, nil
}

// SendGridTransport delivers through the SendGrid v3 API.
type SendGridTransport struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridTransport(apiKey, fromEmail, fromName string) *SendGridTransport {
	return &SendGridTransport{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (t *SendGridTransport) Deliver(ctx context.Context, msg OutboundEmail) (string, error) {
	logger.ExternalServiceCall("SendGrid", "Send", "to", msg.ToEmail, "type", msg.Type)

	from := mail.NewEmail(t.fromName, t.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.ToEmail)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")
	message.SetHeader("X-Notification-Type", string(msg.Type))

	response, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return "", err
	}

	var messageID string
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "messageId", messageID)
	return messageID, nil
}

// LogTransport only writes the message to the log. It never fails.
type LogTransport struct{}

func (LogTransport) Deliver(ctx context.Context, msg OutboundEmail) (string, error) {
	id := "log-" + uuid.NewString()
	logger.Info("Email (log transport)",
		"messageId", id,
		"to", msg.ToEmail,
		"type", msg.Type,
		"subject", msg.Subject,
	)
	return id, nil
}
