package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ChatsCreated  prometheus.Counter
	ChatsDeleted  prometheus.Counter
	MessagesSent  prometheus.Counter
	Replies       prometheus.Counter
	RemoteErrors  prometheus.Counter
	RemoteLatency prometheus.Histogram
}

var (
	once   sync.Once
	global *Metrics
)

// New builds an unregistered set, for tests and for callers with their own registry.
func New() *Metrics {
	return &Metrics{
		ChatsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curiosity",
			Name:      "chats_created_total",
			Help:      "Total chats started",
		}),
		ChatsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curiosity",
			Name:      "chats_deleted_total",
			Help:      "Total chats deleted after confirmation",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curiosity",
			Name:      "messages_sent_total",
			Help:      "Total user messages sent to the chat backend",
		}),
		Replies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curiosity",
			Name:      "replies_total",
			Help:      "Total bot replies received",
		}),
		RemoteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "curiosity",
			Name:      "remote_errors_total",
			Help:      "Total failed exchanges with the chat backend",
		}),
		RemoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "curiosity",
			Name:      "remote_latency_seconds",
			Help:      "Round trip time of chat backend exchanges",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.ChatsCreated, m.ChatsDeleted, m.MessagesSent, m.Replies, m.RemoteErrors, m.RemoteLatency)
}

func Global() *Metrics {
	once.Do(func() {
		global = New()
		global.Register(prometheus.DefaultRegisterer)
	})
	return global
}
