// Package whatsapp runs the bot over WhatsApp via Twilio: an outbound
// Messages API client and an inbound webhook. Replies go out through the
// Messages API rather than TwiML so both transports share one send path.
package whatsapp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

type Sender struct {
	accountSID string
	authToken  string
	from       string
	httpClient *http.Client
	baseURL    string
}

func NewSender(accountSID, authToken, from string) *Sender {
	return &Sender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       ensureWhatsAppPrefix(from),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    twilioAPIBase,
	}
}

// SendText posts one message through the Twilio Messages API. The
// recipient is a phone number with or without the whatsapp: prefix.
func (s *Sender) SendText(ctx context.Context, recipient, text string) error {
	form := url.Values{}
	form.Set("From", s.from)
	form.Set("To", ensureWhatsAppPrefix(recipient))
	form.Set("Body", text)

	endpoint := s.baseURL + "/Accounts/" + s.accountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("twilio send failed: status %d: %s", res.StatusCode, string(body))
	}
	return nil
}

func ensureWhatsAppPrefix(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
