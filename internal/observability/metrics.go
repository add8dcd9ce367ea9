package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Analysis outcomes used as metric labels.
const (
	OutcomeSuccess        = "success"
	OutcomeUnsupported    = "unsupported_kind"
	OutcomeEmpty          = "empty_input"
	OutcomeNoTransactions = "no_transactions"
	OutcomeError          = "error"
)

// Metrics holds the analyzer's Prometheus collectors.
type Metrics struct {
	// Registry owns the collectors and backs the /metrics endpoint.
	Registry *prometheus.Registry

	analyses     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	rejected     *prometheus.CounterVec
	grammarHits  *prometheus.CounterVec
	transactions *prometheus.CounterVec
	lookups      *prometheus.CounterVec
}

// NewMetrics registers all collectors in a private registry, so it can be
// called more than once per process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		analyses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_analyses_total",
				Help: "Documents analyzed, by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "analyzer_analysis_duration_seconds",
				Help:    "Duration of document analyses by kind.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_rejected_records_total",
				Help: "Records dropped during normalization, by reason.",
			},
			[]string{"reason"},
		),
		grammarHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_grammar_hits_total",
				Help: "Lines accepted per grammar.",
			},
			[]string{"grammar"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_transactions_total",
				Help: "Transactions extracted, by type.",
			},
			[]string{"type"},
		),
		lookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "analyzer_result_lookups_total",
				Help: "Stored result lookups, by result.",
			},
			[]string{"result"},
		),
	}
}

// RecordAnalysis counts one analysis and observes its duration.
func (m *Metrics) RecordAnalysis(kind, outcome string, d time.Duration) {
	m.analyses.WithLabelValues(kind, outcome).Inc()
	m.duration.WithLabelValues(kind).Observe(d.Seconds())
}

// AddRejected adds n dropped records for a reason.
func (m *Metrics) AddRejected(reason string, n int) {
	m.rejected.WithLabelValues(reason).Add(float64(n))
}

// AddGrammarHits adds n accepted lines for a grammar.
func (m *Metrics) AddGrammarHits(grammar string, n int) {
	m.grammarHits.WithLabelValues(grammar).Add(float64(n))
}

// AddTransactions adds n extracted transactions of a type.
func (m *Metrics) AddTransactions(typ string, n int) {
	m.transactions.WithLabelValues(typ).Add(float64(n))
}

// IncrLookup counts a stored result lookup as "hit" or "miss".
func (m *Metrics) IncrLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(result).Inc()
}

// Snapshot is a summary of the counters for the health endpoint.
type Snapshot struct {
	Analyses       int64            `json:"analyses"`
	Failures       int64            `json:"failures"`
	FailureRate    float64          `json:"failureRate"`
	Transactions   int64            `json:"transactions"`
	LookupHitRate  float64          `json:"lookupHitRate"`
	RejectedByKind map[string]int64 `json:"rejected,omitempty"`
}

// Snapshot reads the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	var s Snapshot
	s.RejectedByKind = make(map[string]int64)

	for _, mf := range gather(m.analyses) {
		v := int64(mf.value)
		s.Analyses += v
		if mf.labels["outcome"] != OutcomeSuccess {
			s.Failures += v
		}
	}
	for _, mf := range gather(m.transactions) {
		s.Transactions += int64(mf.value)
	}
	for _, mf := range gather(m.rejected) {
		s.RejectedByKind[mf.labels["reason"]] += int64(mf.value)
	}

	var hits, misses float64
	for _, mf := range gather(m.lookups) {
		if mf.labels["result"] == "hit" {
			hits += mf.value
		} else {
			misses += mf.value
		}
	}

	if s.Analyses > 0 {
		s.FailureRate = float64(s.Failures) / float64(s.Analyses)
	}
	if hits+misses > 0 {
		s.LookupHitRate = hits / (hits + misses)
	}
	return s
}

type counterSample struct {
	labels map[string]string
	value  float64
}

// gather collects the current value of every child of a CounterVec.
func gather(cv *prometheus.CounterVec) []counterSample {
	ch := make(chan prometheus.Metric)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var out []counterSample
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err != nil || m.Counter == nil {
			continue
		}
		labels := make(map[string]string, len(m.Label))
		for _, lp := range m.Label {
			labels[lp.GetName()] = lp.GetValue()
		}
		out = append(out, counterSample{labels: labels, value: m.Counter.GetValue()})
	}
	return out
}
