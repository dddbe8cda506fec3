// Package metrics exposes Prometheus counters for the extraction pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Documents counts processed documents by final status.
	Documents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgest_documents_total",
		Help: "Documents processed, by outcome.",
	}, []string{"status"})

	// Chunks counts emitted chunks by kind (text, image).
	Chunks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgest_chunks_total",
		Help: "Chunks emitted, by kind.",
	}, []string{"kind"})

	// ImagesSkipped counts images dropped at a validation gate or by a
	// declined caption, by reason.
	ImagesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgest_images_skipped_total",
		Help: "Embedded images skipped, by reason.",
	}, []string{"reason"})

	// CaptionRequests counts calls to the captioning model.
	CaptionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "deckgest_caption_requests_total",
		Help: "Caption model invocations, by outcome.",
	}, []string{"outcome"})
)
