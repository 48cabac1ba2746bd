package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SendGridMailer sends best-effort notification mail. A nil mailer or a
// blank API key disables sending without failing the caller.
type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To      []sendGridEmailAddress `json:"to"`
	Subject string                 `json:"subject"`
}

type sendGridMessage struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// SendFriendRequestNotice tells toEmail that fromName wants to be friends.
func (m *SendGridMailer) SendFriendRequestNotice(ctx context.Context, toEmail string, fromName string) error {
	if m == nil || m.APIKey == "" {
		return nil
	}
	to := strings.TrimSpace(toEmail)
	if to == "" {
		return nil
	}
	if fromName == "" {
		fromName = "Someone"
	}

	msg := sendGridMessage{
		Personalizations: []sendGridPersonalization{{
			To:      []sendGridEmailAddress{{Email: to}},
			Subject: fmt.Sprintf("%s sent you a friend request", fromName),
		}},
		From: sendGridEmailAddress{Email: m.FromEmail, Name: "BrewMap"},
		Content: []sendGridContent{{
			Type:  "text/plain",
			Value: fmt.Sprintf("%s wants to be friends on BrewMap. Open the app to accept or decline.", fromName),
		}},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid http %d", resp.StatusCode)
	}
	return nil
}
