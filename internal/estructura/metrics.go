package estructura

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	estructurasCreadas = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estructuras",
		Subsystem: "write",
		Name:      "created_total",
		Help:      "Total number of salary structures created broken down by scope variant.",
	}, []string{"variant"})

	estructurasConflictos = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estructuras",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of structure write conflicts broken down by kind.",
	}, []string{"kind"})

	estructurasAutoCierres = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estructuras",
		Subsystem: "write",
		Name:      "auto_closed_total",
		Help:      "Total number of predecessor headers closed automatically.",
	}, []string{"variant"})

	bonosOmitidos = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "estructuras",
		Subsystem: "write",
		Name:      "bonus_skipped_total",
		Help:      "Total number of bonus lines dropped at creation broken down by reason.",
	}, []string{"reason"})
)

func registrarConflicto(kind string) {
	if kind == "" {
		kind = "other"
	}
	estructurasConflictos.WithLabelValues(kind).Inc()
}

func registrarCreada(v Variante) {
	estructurasCreadas.WithLabelValues(string(v)).Inc()
}

func registrarAutoCierre(v Variante) {
	estructurasAutoCierres.WithLabelValues(string(v)).Inc()
}

func registrarBonoOmitido(motivo string) {
	bonosOmitidos.WithLabelValues(motivo).Inc()
}
