package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "coin_tracker"
	subsystem = "telegram_bot"
)

// Lookup results reported by the price client
const (
	LookupOK       = "ok"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// Metrics groups the bot collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CommandsProcessed  prometheus.Counter
	MessagesHandled    prometheus.Counter
	ChannelsCount      prometheus.Gauge
	MessagesPerChannel *prometheus.CounterVec
	AlertsTriggered    prometheus.Counter
	ScanCycles         prometheus.Counter
	ActiveAlerts       prometheus.Gauge
	PriceLookups       *prometheus.CounterVec

	channelsSet map[int64]string
	mu          sync.Mutex
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}),
		MessagesHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_handled",
			Help:      "The total number of handled messages",
		}),
		ChannelsCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "channels_count",
			Help:      "The current number of unique chats the bot has talked to",
		}),
		MessagesPerChannel: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "messages_per_channel",
				Help:      "The total number of messages handled per chat",
			},
			[]string{"chat_id", "chat_name"},
		),
		AlertsTriggered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "alerts_triggered",
			Help:      "The total number of alerts that reached their target",
		}),
		ScanCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_cycles",
			Help:      "The total number of alert scan cycles that checked prices",
		}),
		ActiveAlerts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_alerts",
			Help:      "The number of alerts seen by the last scan cycle",
		}),
		PriceLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "price_lookups",
				Help:      "Price API lookups by result",
			},
			[]string{"result"},
		),
		channelsSet: make(map[int64]string),
	}

	reg.MustRegister(
		m.CommandsProcessed,
		m.MessagesHandled,
		m.ChannelsCount,
		m.MessagesPerChannel,
		m.AlertsTriggered,
		m.ScanCycles,
		m.ActiveAlerts,
		m.PriceLookups,
	)
	return m
}

// ObserveMessage counts an inbound message and remembers the chat
func (m *Metrics) ObserveMessage(chatID int64, chatName string) {
	if m == nil {
		return
	}
	m.MessagesHandled.Inc()

	m.mu.Lock()
	if _, exists := m.channelsSet[chatID]; !exists {
		m.channelsSet[chatID] = chatName
		m.ChannelsCount.Set(float64(len(m.channelsSet)))
	}
	m.mu.Unlock()

	m.MessagesPerChannel.WithLabelValues(strconv.FormatInt(chatID, 10), chatName).Inc()
}

func (m *Metrics) CommandProcessed() {
	if m == nil {
		return
	}
	m.CommandsProcessed.Inc()
}

func (m *Metrics) AlertTriggered() {
	if m == nil {
		return
	}
	m.AlertsTriggered.Inc()
}

// ScanCycle records a cycle that evaluated active alerts
func (m *Metrics) ScanCycle(active int) {
	if m == nil {
		return
	}
	m.ScanCycles.Inc()
	m.ActiveAlerts.Set(float64(active))
}

func (m *Metrics) SetActiveAlerts(n int) {
	if m == nil {
		return
	}
	m.ActiveAlerts.Set(float64(n))
}

func (m *Metrics) PriceLookup(result string) {
	if m == nil {
		return
	}
	m.PriceLookups.WithLabelValues(result).Inc()
}

// Value reads the current value of a counter or gauge
func Value(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 1)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	var value float64
	for metric := range ch {
		pb := &dto.Metric{}
		if err := metric.Write(pb); err != nil {
			log.Errorf("Failed to read metric value: %v", err)
			continue
		}
		if pb.Counter != nil {
			value += pb.Counter.GetValue()
		} else if pb.Gauge != nil {
			value += pb.Gauge.GetValue()
		}
	}
	return value
}
