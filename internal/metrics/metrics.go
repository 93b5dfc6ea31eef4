package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkease",
		Name:      "bookings_created_total",
		Help:      "Bookings successfully created.",
	})
	bookingConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkease",
		Name:      "booking_conflicts_total",
		Help:      "Booking attempts rejected because the spot was occupied.",
	})
	searchRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "parkease",
		Name:      "search_requests_total",
		Help:      "Smart search queries processed.",
	})
	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "parkease",
		Name:      "websocket_clients",
		Help:      "Currently connected websocket clients.",
	})
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingsCreated, bookingConflicts, searchRequests, wsClients)
	})
}

func IncBookingCreated()  { bookingsCreated.Inc() }
func IncBookingConflict() { bookingConflicts.Inc() }
func IncSearchRequest()   { searchRequests.Inc() }
func SetWSClients(n int)  { wsClients.Set(float64(n)) }
