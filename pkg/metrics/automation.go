package metrics

import "github.com/prometheus/client_golang/prometheus"

// Allocation outcomes.
const (
	AllocationAllocated = "allocated"
	AllocationNoop      = "noop"
	AllocationSkipped   = "skipped"
	AllocationFailed    = "failed"
)

// Dispatch outcomes per bolão group.
const (
	DispatchSent    = "sent"
	DispatchSkipped = "skipped"
	DispatchFailed  = "failed"
)

// AutomationMetrics counts quota allocations and card dispatches.
type AutomationMetrics struct {
	allocations *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	messages    prometheus.Counter
}

// NewAutomationMetrics registers the automation counters on reg. A nil
// registerer yields a no-op recorder.
func NewAutomationMetrics(reg prometheus.Registerer) *AutomationMetrics {
	if reg == nil {
		return &AutomationMetrics{}
	}
	allocations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bolao",
		Name:      "allocations_total",
		Help:      "Quota allocation attempts by result.",
	}, []string{"result"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bolao",
		Name:      "group_dispatches_total",
		Help:      "Ready-group card dispatch attempts by result.",
	}, []string{"result"})
	messages := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "bolao",
		Name:      "messages_sent_total",
		Help:      "WhatsApp messages accepted by the bulk API.",
	})
	reg.MustRegister(allocations, dispatches, messages)
	return &AutomationMetrics{
		allocations: allocations,
		dispatches:  dispatches,
		messages:    messages,
	}
}

func (m *AutomationMetrics) IncAllocation(result string) {
	if m == nil || m.allocations == nil {
		return
	}
	m.allocations.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *AutomationMetrics) IncDispatch(result string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *AutomationMetrics) AddMessages(n int) {
	if m == nil || m.messages == nil || n <= 0 {
		return
	}
	m.messages.Add(float64(n))
}
