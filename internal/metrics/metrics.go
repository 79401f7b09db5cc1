package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	reservationsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "reservations_created_total",
		Help:      "Reservations successfully allocated.",
	})

	allocationConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "allocation_conflicts_total",
		Help:      "Reservation attempts that lost a slot to an overlapping booking.",
	})

	checkIns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "checkins_total",
		Help:      "Successful check-ins.",
	})

	checkOuts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "checkouts_total",
		Help:      "Successful check-outs.",
	})

	paymentsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "payments_failed_total",
		Help:      "Checkouts whose payment could not be completed.",
	})

	expiredReservations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkit",
		Name:      "expired_reservations_total",
		Help:      "Confirmed reservations cancelled as no-shows.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationsCreated,
			allocationConflicts,
			checkIns,
			checkOuts,
			paymentsFailed,
			expiredReservations,
		)
	})
}

func IncReservationsCreated() { reservationsCreated.Inc() }
func IncAllocationConflicts() { allocationConflicts.Inc() }
func IncCheckIns()            { checkIns.Inc() }
func IncCheckOuts()           { checkOuts.Inc() }
func IncPaymentsFailed()      { paymentsFailed.Inc() }

// AddExpiredReservations records n no-show cancellations from one sweep.
func AddExpiredReservations(n int) { expiredReservations.Add(float64(n)) }
