package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_orders_issued_total",
		Help: "Baskets assembled into issued order groups.",
	})

	SettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_settlements_total",
		Help: "Order groups settled after gateway confirmation.",
	})

	DuplicateSettlementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_duplicate_settlements_total",
		Help: "Settlement attempts that found the group already paid.",
	})

	WebhookRejectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ticketing_webhook_signature_rejects_total",
		Help: "Webhook deliveries rejected for a bad signature.",
	})
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
