// AngelaMos | 2026
// sender.go

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carterperez-dev/waitlist-backend/internal/config"
	"github.com/carterperez-dev/waitlist-backend/internal/core"
)

// Sender delivers a rendered text message and reports its provider id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
	Status(ctx context.Context, messageID string) (string, error)
}

// NewSender picks the log sender in mock mode and Twilio otherwise.
func NewSender(cfg config.SMSConfig, logger *slog.Logger) Sender {
	if cfg.MockEnabled {
		return NewLogSender(logger)
	}
	return NewTwilioSender(cfg, logger)
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, body string) (string, error) {
	id := "mock-" + uuid.NewString()
	s.logger.InfoContext(ctx, "sms (mock)",
		"message_id", id,
		"to", maskPhone(to),
		"body", body,
	)
	return id, nil
}

func (s *LogSender) Status(_ context.Context, _ string) (string, error) {
	return "delivered", nil
}

const defaultTwilioBaseURL = "https://api.twilio.com"

type TwilioSender struct {
	client     *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
	logger     *slog.Logger
}

func NewTwilioSender(cfg config.SMSConfig, logger *slog.Logger) *TwilioSender {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultTwilioBaseURL
	}

	return &TwilioSender{
		client:     core.InstrumentedClient(timeout),
		baseURL:    base,
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		logger:     logger,
	}
}

type twilioMessage struct {
	SID          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (s *TwilioSender) configured() error {
	if s.accountSID == "" || s.authToken == "" {
		return fmt.Errorf("twilio credentials: %w", core.ErrNotConfigured)
	}
	if s.from == "" {
		return fmt.Errorf("twilio from number: %w", core.ErrNotConfigured)
	}
	return nil
}

func (s *TwilioSender) messagesURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages", s.baseURL, url.PathEscape(s.accountSID))
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if err := s.configured(); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.messagesURL()+".json", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var msg twilioMessage
	if err := s.do(req, &msg); err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "sms sent",
		"message_id", msg.SID,
		"to", maskPhone(to),
		"status", msg.Status,
	)

	return msg.SID, nil
}

func (s *TwilioSender) Status(ctx context.Context, messageID string) (string, error) {
	if err := s.configured(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.messagesURL()+"/"+url.PathEscape(messageID)+".json", nil)
	if err != nil {
		return "", fmt.Errorf("build twilio request: %w", err)
	}

	var msg twilioMessage
	if err := s.do(req, &msg); err != nil {
		return "", err
	}

	return msg.Status, nil
}

func (s *TwilioSender) do(req *http.Request, dest any) error {
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read twilio response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("twilio message: %w", core.ErrNotFound)
	}

	if resp.StatusCode >= 300 {
		var apiErr twilioError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio api error %d: %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("twilio api status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode twilio response: %w", err)
	}

	return nil
}

// maskPhone keeps the last four digits for log lines.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
