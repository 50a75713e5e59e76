package metrics

import "github.com/prometheus/client_golang/prometheus"

// Namespace prefixes every collector exported by the service.
const Namespace = "activation"

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

func register(reg prometheus.Registerer, collectors ...prometheus.Collector) {
	if reg == nil {
		return
	}
	reg.MustRegister(collectors...)
}
