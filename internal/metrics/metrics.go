// Package metrics exposes prometheus counters for the scheduling core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ReservationsCreated counts successfully booked schedule slots.
	ReservationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacinajp_reservations_created_total",
		Help: "Schedule reservations successfully created.",
	})

	// ReservationsRejected counts bookings refused for lack of capacity.
	ReservationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacinajp_reservations_rejected_total",
		Help: "Schedule reservations rejected because the slot was exhausted or closed.",
	})

	// DosesRecorded counts administered doses.
	DosesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacinajp_doses_recorded_total",
		Help: "Vaccine doses recorded.",
	})

	// AdjustmentsApplied counts accepted capacity adjustments.
	AdjustmentsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacinajp_capacity_adjustments_applied_total",
		Help: "Administrative capacity adjustments applied.",
	})

	// AdjustmentsRejected counts refused capacity adjustments.
	AdjustmentsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vacinajp_capacity_adjustments_rejected_total",
		Help: "Administrative capacity adjustments rejected by the non-negative gate or empty input.",
	})
)
