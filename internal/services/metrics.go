package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contentSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesdb_content_saves_total",
			Help: "Content saves by kind and outcome (created, forked, versioned)",
		},
		[]string{"kind", "outcome"},
	)
	llmRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagesdb_llm_requests_total",
			Help: "LLM provider calls by operation and result",
		},
		[]string{"operation", "result"},
	)
)

func recordSave(kind Kind, outcome SaveOutcome) {
	contentSaves.WithLabelValues(kind.Name, string(outcome)).Inc()
}

func recordLLM(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	llmRequests.WithLabelValues(operation, result).Inc()
}
