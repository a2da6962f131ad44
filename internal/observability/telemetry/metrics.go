package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	ActiveChargingSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evstation_active_charging_sessions",
		Help: "Number of charging sessions currently active",
	})

	EnergyDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evstation_energy_delivered_kwh_total",
		Help: "Total energy delivered in kWh",
	})

	BillsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evstation_bills_issued_total",
		Help: "Total number of bills produced",
	})

	WaitingQueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "evstation_waiting_queue_length",
		Help: "Cars waiting in the main queue, by charge mode",
	}, []string{"mode"})

	// Infrastructure metrics
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evstation_actions_total",
		Help: "Wire actions processed, by action and status",
	}, []string{"action", "status"})

	SchedulerTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evstation_scheduler_tick_seconds",
		Help:    "Duration of scheduler ticks",
		Buckets: prometheus.DefBuckets,
	})
)
