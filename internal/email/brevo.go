// Package email sends transactional mail through the Brevo HTTP API. Callers
// pass display strings only; the API key is never logged.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gittogether/api/internal/config"
)

var ErrNotConfigured = errors.New("email api key not configured")

type Address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type message struct {
	Sender      *Address          `json:"sender,omitempty"`
	To          []Address         `json:"to"`
	ReplyTo     *Address          `json:"replyTo,omitempty"`
	Subject     string            `json:"subject,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	TemplateID  int64             `json:"templateId,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

type Client struct {
	http    *http.Client
	cfg     config.EmailConfig
	baseURL string
}

func NewClient(cfg config.EmailConfig) *Client {
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// SendPendingRequestEmail reminds a user that connection requests wait for review.
func (c *Client) SendPendingRequestEmail(ctx context.Context, toEmail, firstName string) (string, error) {
	return c.send(ctx, message{
		To:         []Address{{Email: toEmail}},
		ReplyTo:    &Address{Email: c.cfg.ReplyTo, Name: "No Reply"},
		TemplateID: c.cfg.PendingTemplateID,
		Params:     map[string]string{"firstName": firstName},
	})
}

type ContactMessage struct {
	FromName  string
	FromEmail string
	Subject   string
	Body      string
}

// SendContactEmail relays a contact form submission to the site admin, with
// reply-to set to the submitter.
func (c *Client) SendContactEmail(ctx context.Context, msg ContactMessage) (string, error) {
	if c.cfg.AdminAddress == "" {
		return "", errors.New("email.adminaddress not configured")
	}
	body := fmt.Sprintf("From: %s <%s>\n\n%s", msg.FromName, msg.FromEmail, msg.Body)
	return c.send(ctx, message{
		Sender:      &Address{Email: c.cfg.Sender, Name: c.cfg.SenderName},
		To:          []Address{{Email: c.cfg.AdminAddress}},
		ReplyTo:     &Address{Email: msg.FromEmail, Name: msg.FromName},
		Subject:     "[Contact] " + msg.Subject,
		TextContent: body,
	})
}

type sendResponse struct {
	MessageID string `json:"messageId"`
}

func (c *Client) send(ctx context.Context, msg message) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/smtp/email", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("brevo request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("brevo API error %d: %s", resp.StatusCode, string(respBody))
	}

	var out sendResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			return "", fmt.Errorf("decode brevo response: %w", err)
		}
	}
	return out.MessageID, nil
}
