package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// NotifyConfig holds the customer-facing notification templates. Templates
// are Go text/template bodies; see internal/notification for the fields
// available at render time.
type NotifyConfig struct {
	SMSTemplate        string `mapstructure:"smsTemplate"`
	AdminEmailSubject  string `mapstructure:"adminEmailSubject"`
	AdminEmailTemplate string `mapstructure:"adminEmailTemplate"`
	Currency           string `mapstructure:"currency"`
}

func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		SMSTemplate: "Your order #{{.OrderID}} ({{.ItemSummary}}) " +
			"for {{.Currency}} {{.TotalAmount}} has been placed. Thank you for shopping with us.",
		AdminEmailSubject: "New Order #{{.OrderID}}",
		AdminEmailTemplate: "New order #{{.OrderID}} placed at {{.PlacedAt}}.\n" +
			"Customer: {{.CustomerID}} ({{.CustomerPhone}})\n" +
			"Address: {{.CustomerAddress}}\n\n" +
			"{{range .Items}}  - {{.ProductName}} x{{.Quantity}} @ {{.UnitPrice}} = {{.Subtotal}}\n{{end}}\n" +
			"Total: {{.Currency}} {{.TotalAmount}}",
		Currency: "KES",
	}
}

// NotifyConfigHolder serves the active notification config and hot-reloads
// it when the backing file changes.
type NotifyConfigHolder struct {
	current atomic.Value // holds NotifyConfig
}

func NewNotifyConfigHolder() (*NotifyConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("notifications")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/soko/config")
	v.AddConfigPath("/etc/soko")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOKO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultNotifyConfig()
	v.SetDefault("notify.smsTemplate", defaults.SMSTemplate)
	v.SetDefault("notify.adminEmailSubject", defaults.AdminEmailSubject)
	v.SetDefault("notify.adminEmailTemplate", defaults.AdminEmailTemplate)
	v.SetDefault("notify.currency", defaults.Currency)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg NotifyConfig
	if err := v.UnmarshalKey("notify", &cfg); err != nil {
		return nil, err
	}
	if err := validateNotifyConfig(cfg); err != nil {
		return nil, err
	}

	holder := &NotifyConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated NotifyConfig
		if err := v.UnmarshalKey("notify", &updated); err != nil {
			log.Printf("[notify-config] reload failed: %v", err)
			return
		}
		if err := validateNotifyConfig(updated); err != nil {
			log.Printf("[notify-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[notify-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticNotifyConfigHolder wraps a fixed config with no file watching.
func NewStaticNotifyConfigHolder(cfg NotifyConfig) *NotifyConfigHolder {
	holder := &NotifyConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *NotifyConfigHolder) Get() NotifyConfig {
	return h.current.Load().(NotifyConfig)
}

func validateNotifyConfig(cfg NotifyConfig) error {
	if strings.TrimSpace(cfg.SMSTemplate) == "" {
		return errors.New("notify.smsTemplate cannot be empty")
	}
	if strings.TrimSpace(cfg.AdminEmailTemplate) == "" {
		return errors.New("notify.adminEmailTemplate cannot be empty")
	}
	return nil
}
