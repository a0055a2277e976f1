package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"time"

	"go.uber.org/zap"
)

// Notifier — best-effort доставка напоминаний. Ошибки возвращаются
// вызывающему для учета повторов, но наружу не пробрасываются.
type Notifier interface {
	Push(ctx context.Context, token, title, body string) error
	Email(ctx context.Context, addr, subject, body string) error
}

// Sender шлет email через SMTP и push через HTTP-шлюз
type Sender struct {
	smtpAddr string
	auth     smtp.Auth
	from     string

	gatewayURL string
	gatewayKey string
	client     *http.Client

	logger *zap.Logger
}

type SenderConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	From         string

	PushGatewayURL string
	PushGatewayKey string
}

func NewSender(cfg SenderConfig, logger *zap.Logger) *Sender {
	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return &Sender{
		smtpAddr:   cfg.SMTPHost + ":" + cfg.SMTPPort,
		auth:       auth,
		from:       cfg.From,
		gatewayURL: cfg.PushGatewayURL,
		gatewayKey: cfg.PushGatewayKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *Sender) Email(ctx context.Context, addr, subject, body string) error {
	if s.smtpAddr == ":" || s.from == "" {
		return fmt.Errorf("smtp is not configured")
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		s.from, addr, subject, body,
	))

	// net/smtp не принимает контекст; таймаут соединения держит сам клиент
	if err := smtp.SendMail(s.smtpAddr, s.auth, s.from, []string{addr}, msg); err != nil {
		return fmt.Errorf("send email to %s: %w", addr, err)
	}

	s.logger.Info("email sent", zap.String("to", addr), zap.String("subject", subject))
	return nil
}

func (s *Sender) Push(ctx context.Context, token, title, body string) error {
	if s.gatewayURL == "" {
		return fmt.Errorf("push gateway is not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"token": token,
		"title": title,
		"body":  body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.gatewayKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.gatewayKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %d", resp.StatusCode)
	}

	s.logger.Info("push notification sent", zap.String("title", title))
	return nil
}

// LogNotifier пишет напоминания только в лог. Для локальной разработки,
// когда SMTP и push-шлюз не настроены.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Push(ctx context.Context, token, title, body string) error {
	n.Logger.Info("push (log only)", zap.String("title", title), zap.String("body", body))
	return nil
}

func (n *LogNotifier) Email(ctx context.Context, addr, subject, body string) error {
	n.Logger.Info("email (log only)", zap.String("to", addr), zap.String("subject", subject))
	return nil
}
