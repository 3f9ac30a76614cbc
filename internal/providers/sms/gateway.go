package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	GatewayURL string
	Username   string
	APIKey     string
	SenderID   string
}

// GatewayProvider posts messages to an Africa's Talking style SMS
// gateway as a form-encoded request.
type GatewayProvider struct {
	cfg    Config
	client *http.Client
}

func NewGateway(cfg Config) *GatewayProvider {
	return &GatewayProvider{
		cfg: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (p *GatewayProvider) Send(ctx context.Context, to string, message string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("sms recipient is empty")
	}

	form := url.Values{}
	form.Set("username", p.cfg.Username)
	form.Set("to", to)
	form.Set("message", message)
	if p.cfg.SenderID != "" {
		form.Set("from", p.cfg.SenderID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.GatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
