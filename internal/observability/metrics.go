package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "uniride", Name: "rides_created_total", Help: "Total number of rides published by drivers"})
	RidesArchivedTotal   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "uniride", Name: "rides_archived_total", Help: "Total number of completed rides archived"})
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "uniride", Name: "bookings_created_total", Help: "Total number of seat bookings created"})
	CapacityRejections   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "uniride", Name: "booking_capacity_rejections_total", Help: "Booking attempts rejected for insufficient seats"})
	ChatMessagesTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "uniride", Name: "chat_messages_total", Help: "Total number of ride chat messages stored"})
	WSClientsConnected   = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "uniride", Name: "ws_clients_connected", Help: "Number of connected websocket clients"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "uniride", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "uniride",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
