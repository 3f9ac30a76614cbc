package sms

import (
	"strings"

	"github.com/smallbiznis/soko/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.sms",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if strings.TrimSpace(cfg.SMS.GatewayURL) == "" {
		return &NoOpProvider{}
	}
	return NewGateway(Config{
		GatewayURL: cfg.SMS.GatewayURL,
		Username:   cfg.SMS.Username,
		APIKey:     cfg.SMS.APIKey,
		SenderID:   cfg.SMS.SenderID,
	})
}
