package metrics

import (
	"coin-tracker-bot/internal/database"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

// Load restores counters saved by a previous run
func (m *Metrics) Load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.counters() {
		v, err := database.GetMetric(name)
		if err != nil {
			log.WithError(err).Warnf("Failed to load metric %s", name)
			continue
		}
		c.Add(v)
	}

	loadLabeledMetrics("messages_per_channel", func(chatIDStr, chatName string, value float64) {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Warnf("Failed to parse chatID %s: %v", chatIDStr, err)
			return
		}
		m.MessagesPerChannel.WithLabelValues(chatIDStr, chatName).Add(value)
		m.channelsSet[chatID] = chatName
	})
	m.ChannelsCount.Set(float64(len(m.channelsSet)))

	loadLabeledMetrics("price_lookups", func(labelKey, result string, value float64) {
		if labelKey == "result" {
			m.PriceLookups.WithLabelValues(result).Add(value)
		}
	})

	log.Info("Metrics loaded from database.")
}

func loadLabeledMetrics(metricName string, callback func(labelKey, labelValue string, value float64)) {
	metricsWithLabels, err := database.GetMetricsWithLabels(metricName)
	if err != nil {
		log.WithError(err).Warnf("Failed to load metric %s", metricName)
		return
	}
	for labelKey, labelValues := range metricsWithLabels {
		for labelValue, value := range labelValues {
			callback(labelKey, labelValue, value)
		}
	}
}

// Save writes the current counter values to the database
func (m *Metrics) Save() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, c := range m.counters() {
		if err := database.SaveMetric(name, Value(c)); err != nil {
			log.WithError(err).Errorf("Failed to save metric %s", name)
		}
	}

	forEachLabeled(m.MessagesPerChannel, func(labels map[string]string, value float64) {
		err := database.SaveMetricWithLabels("messages_per_channel", labels["chat_id"], labels["chat_name"], value)
		if err != nil {
			log.WithError(err).Error("Failed to save messages_per_channel")
		}
	})

	forEachLabeled(m.PriceLookups, func(labels map[string]string, value float64) {
		if err := database.SaveMetricWithLabels("price_lookups", "result", labels["result"], value); err != nil {
			log.WithError(err).Error("Failed to save price_lookups")
		}
	})

	log.Info("Metrics saved to database.")
}

func (m *Metrics) counters() map[string]prometheus.Counter {
	return map[string]prometheus.Counter{
		"commands_processed": m.CommandsProcessed,
		"messages_handled":   m.MessagesHandled,
		"alerts_triggered":   m.AlertsTriggered,
		"scan_cycles":        m.ScanCycles,
	}
}

func forEachLabeled(vec *prometheus.CounterVec, fn func(labels map[string]string, value float64)) {
	ch := make(chan prometheus.Metric, 1)
	go func() {
		vec.Collect(ch)
		close(ch)
	}()

	for metric := range ch {
		pb := &dto.Metric{}
		if err := metric.Write(pb); err != nil {
			log.Errorf("Failed to read labeled metric: %v", err)
			continue
		}
		labels := make(map[string]string, len(pb.Label))
		for _, l := range pb.Label {
			labels[l.GetName()] = l.GetValue()
		}
		fn(labels, pb.Counter.GetValue())
	}
}
