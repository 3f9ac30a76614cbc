package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/soko/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideRegisterer,
		metrics.NewHTTPMetrics,
		metrics.NewOrderMetrics,
	),
)

func provideRegisterer() prometheus.Registerer {
	return prometheus.DefaultRegisterer
}
