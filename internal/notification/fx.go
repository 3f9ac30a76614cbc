package notification

import (
	"context"

	"github.com/smallbiznis/soko/internal/config"
	"github.com/smallbiznis/soko/internal/events"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.dispatcher",
	fx.Provide(config.NewNotifyConfigHolder),
	fx.Provide(New),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, d *Dispatcher) {
	var sub *events.Subscription
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sub = d.hub.Subscribe()
			go d.run(sub)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if sub != nil {
				sub.Close()
			}
			return nil
		},
	})
}
