package catalog

import "github.com/prometheus/client_golang/prometheus"

const labelKey = "key"

// Metrics counts the recoverable store failures. A nil *Metrics records nothing.
type Metrics struct {
	DecodeFailures  *prometheus.CounterVec
	PersistFailures *prometheus.CounterVec
	RemoteRefreshes *prometheus.CounterVec
	Products        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		DecodeFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_decode_failures_total",
				Help: "Stored values that failed to decode and fell back",
			},
			[]string{labelKey},
		),
		PersistFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_persist_failures_total",
				Help: "Writes to the durable store that failed",
			},
			[]string{labelKey},
		),
		RemoteRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_remote_refresh_total",
				Help: "Keys reloaded after a change by another instance",
			},
			[]string{labelKey},
		),
		Products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_products",
			Help: "Products currently in the catalog",
		}),
	}

	reg.MustRegister(m.DecodeFailures, m.PersistFailures, m.RemoteRefreshes, m.Products)
	return m
}

func (m *Metrics) decodeFailed(key string) {
	if m != nil {
		m.DecodeFailures.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) persistFailed(key string) {
	if m != nil {
		m.PersistFailures.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) remoteRefreshed(key string) {
	if m != nil {
		m.RemoteRefreshes.WithLabelValues(key).Inc()
	}
}

func (m *Metrics) setProducts(n int) {
	if m != nil {
		m.Products.Set(float64(n))
	}
}
