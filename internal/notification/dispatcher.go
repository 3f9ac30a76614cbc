package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/smallbiznis/soko/internal/config"
	"github.com/smallbiznis/soko/internal/events"
	"github.com/smallbiznis/soko/internal/providers/email"
	"github.com/smallbiznis/soko/internal/providers/sms"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// sendTimeout caps how long a single notification attempt may take; a
// slow provider must never back the event queue up into the order path.
const sendTimeout = 15 * time.Second

type Params struct {
	fx.In

	Cfg       config.Config
	NotifyCfg *config.NotifyConfigHolder
	Log       *zap.Logger
	Hub       *events.Hub
	SMS       sms.Provider
	Email     email.Provider
}

// Dispatcher consumes order events and sends the customer SMS plus the
// admin email summary. Every failure is logged and swallowed here;
// nothing propagates back to the order engine.
type Dispatcher struct {
	cfg       config.Config
	notifyCfg *config.NotifyConfigHolder
	log       *zap.Logger
	hub       *events.Hub
	sms       sms.Provider
	email     email.Provider
}

func New(p Params) *Dispatcher {
	return &Dispatcher{
		cfg:       p.Cfg,
		notifyCfg: p.NotifyCfg,
		log:       p.Log.Named("notification.dispatcher"),
		hub:       p.Hub,
		sms:       p.SMS,
		email:     p.Email,
	}
}

func (d *Dispatcher) run(sub *events.Subscription) {
	for event := range sub.C() {
		d.handle(event)
	}
}

func (d *Dispatcher) handle(event events.OrderPlaced) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	data := newTemplateData(event, d.notifyCfg.Get().Currency)

	if err := d.sendCustomerSMS(ctx, event, data); err != nil {
		d.log.Warn("order confirmation sms failed",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
	if err := d.sendAdminEmail(ctx, data); err != nil {
		d.log.Warn("admin order email failed",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) sendCustomerSMS(ctx context.Context, event events.OrderPlaced, data templateData) error {
	if strings.TrimSpace(event.CustomerPhone) == "" {
		d.log.Debug("customer has no phone number, skipping sms",
			zap.String("order_id", event.OrderID))
		return nil
	}

	message, err := render("sms", d.notifyCfg.Get().SMSTemplate, data)
	if err != nil {
		return err
	}
	return d.sms.Send(ctx, event.CustomerPhone, message)
}

func (d *Dispatcher) sendAdminEmail(ctx context.Context, data templateData) error {
	adminEmail := strings.TrimSpace(d.cfg.Email.AdminEmail)
	if adminEmail == "" {
		d.log.Debug("admin email not configured, skipping order summary")
		return nil
	}

	notifyCfg := d.notifyCfg.Get()
	subject, err := render("admin_email_subject", notifyCfg.AdminEmailSubject, data)
	if err != nil {
		return err
	}
	body, err := render("admin_email", notifyCfg.AdminEmailTemplate, data)
	if err != nil {
		return err
	}
	return d.email.Send(ctx, []string{adminEmail}, subject, body)
}

type templateData struct {
	OrderID         string
	CustomerID      string
	CustomerPhone   string
	CustomerAddress string
	TotalAmount     string
	Currency        string
	PlacedAt        string
	ItemSummary     string
	ItemCount       int
	Items           []events.OrderPlacedItem
}

func newTemplateData(event events.OrderPlaced, currency string) templateData {
	summary := "items"
	if len(event.Items) > 0 {
		summary = fmt.Sprintf("%s (x%d)", event.Items[0].ProductName, event.Items[0].Quantity)
		if len(event.Items) > 1 {
			summary += "..."
		}
	}

	address := event.CustomerAddress
	if strings.TrimSpace(address) == "" {
		address = "Not provided"
	}

	return templateData{
		OrderID:         event.OrderID,
		CustomerID:      event.CustomerID,
		CustomerPhone:   event.CustomerPhone,
		CustomerAddress: address,
		TotalAmount:     event.TotalAmount,
		Currency:        currency,
		PlacedAt:        event.PlacedAt.Format(time.RFC3339),
		ItemSummary:     summary,
		ItemCount:       len(event.Items),
		Items:           event.Items,
	}
}

func render(name, body string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return out.String(), nil
}
