package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/soko/internal/config"
	"github.com/smallbiznis/soko/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type smsRecorder struct {
	to      []string
	message []string
	err     error
}

func (r *smsRecorder) Send(ctx context.Context, to, message string) error {
	r.to = append(r.to, to)
	r.message = append(r.message, message)
	return r.err
}

type emailRecorder struct {
	to      [][]string
	subject []string
	body    []string
	err     error
}

func (r *emailRecorder) Send(ctx context.Context, to []string, subject, body string) error {
	r.to = append(r.to, to)
	r.subject = append(r.subject, subject)
	r.body = append(r.body, body)
	return r.err
}

func newDispatcher(adminEmail string, smsP *smsRecorder, emailP *emailRecorder) *Dispatcher {
	cfg := config.Config{}
	cfg.Email.AdminEmail = adminEmail
	return New(Params{
		Cfg:       cfg,
		NotifyCfg: config.NewStaticNotifyConfigHolder(config.DefaultNotifyConfig()),
		Log:       zap.NewNop(),
		Hub:       events.NewHub(),
		SMS:       smsP,
		Email:     emailP,
	})
}

func placedEvent() events.OrderPlaced {
	return events.OrderPlaced{
		OrderID:         "90001",
		CustomerID:      "123",
		CustomerPhone:   "+254700000001",
		CustomerAddress: "12 Riverside Dr",
		TotalAmount:     "250.00",
		PlacedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Items: []events.OrderPlacedItem{
			{ProductID: "1", ProductName: "Sourdough Loaf", Quantity: 5, UnitPrice: "50.00", Subtotal: "250.00"},
		},
	}
}

func TestHandleSendsSMSAndEmail(t *testing.T) {
	smsP := &smsRecorder{}
	emailP := &emailRecorder{}
	d := newDispatcher("admin@example.com", smsP, emailP)

	d.handle(placedEvent())

	require.Len(t, smsP.message, 1)
	assert.Equal(t, "+254700000001", smsP.to[0])
	assert.Contains(t, smsP.message[0], "order #90001")
	assert.Contains(t, smsP.message[0], "Sourdough Loaf (x5)")
	assert.Contains(t, smsP.message[0], "KES 250.00")

	require.Len(t, emailP.body, 1)
	assert.Equal(t, []string{"admin@example.com"}, emailP.to[0])
	assert.Equal(t, "New Order #90001", emailP.subject[0])
	assert.Contains(t, emailP.body[0], "Sourdough Loaf x5 @ 50.00 = 250.00")
	assert.Contains(t, emailP.body[0], "12 Riverside Dr")
}

func TestHandleSkipsMissingTargets(t *testing.T) {
	smsP := &smsRecorder{}
	emailP := &emailRecorder{}
	d := newDispatcher("", smsP, emailP)

	event := placedEvent()
	event.CustomerPhone = ""
	d.handle(event)

	assert.Empty(t, smsP.message, "no phone number, no sms")
	assert.Empty(t, emailP.body, "no admin email configured")
}

func TestHandleSwallowsProviderFailures(t *testing.T) {
	smsP := &smsRecorder{err: errors.New("gateway down")}
	emailP := &emailRecorder{err: errors.New("smtp down")}
	d := newDispatcher("admin@example.com", smsP, emailP)

	// Must not panic or propagate.
	d.handle(placedEvent())

	assert.Len(t, smsP.message, 1)
	assert.Len(t, emailP.body, 1)
}

func TestRunConsumesSubscription(t *testing.T) {
	smsP := &smsRecorder{}
	emailP := &emailRecorder{}
	d := newDispatcher("admin@example.com", smsP, emailP)

	sub := d.hub.Subscribe()
	done := make(chan struct{})
	go func() {
		d.run(sub)
		close(done)
	}()

	d.hub.Publish(placedEvent())
	sub.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after subscription close")
	}
	assert.Len(t, smsP.message, 1)
}
