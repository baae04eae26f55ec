// The metrics package defines prometheus metric types and provides
// convenience methods to add accounting to various parts of the dissection
// and serialization pipeline.
//
// When defining new operations or metrics, these are helpful values to track:
//  - things coming into or going out of the engine: packets dissected, bytes packed.
//  - the success or error status of any of the above.
//  - the distribution of processing latency.
package metrics

import (
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ListenAndServe starts a Prometheus exporter on promPort. It is opt-in:
// nothing in the engine calls it automatically, so a binary embedding this
// module decides for itself whether to expose metrics at all.
func ListenAndServe(promPort int) {
	if promPort <= 0 {
		log.Println("Not exporting prometheus metrics")
		return
	}

	// Custom mux so prometheus can listen on its own port, same pattern the
	// teacher used to keep it off the application's main port.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	prometheus.MustRegister(DissectErrorCount)
	prometheus.MustRegister(PackFailureCount)
	prometheus.MustRegister(UnknownDiscriminatorCount)
	prometheus.MustRegister(ListenerPanicCount)
	prometheus.MustRegister(PredicatePanicCount)
	prometheus.MustRegister(DissectLatencyUsecSummary)
	prometheus.MustRegister(PacketDepthHistogram)

	port := fmt.Sprintf(":%d", promPort)
	log.Println("Exporting prometheus metrics on", port)
	go http.ListenAndServe(port, mux)
}

var (
	// DissectErrorCount counts dissection failures, by protocol class name.
	// Provides metrics:
	//    pktengine_dissect_error_count
	// Example usage:
	//    metrics.DissectErrorCount.WithLabelValues("udp").Inc()
	DissectErrorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktengine_dissect_error_count",
			Help: "The total number of dissection errors encountered, by class.",
		}, []string{"class"})

	// PackFailureCount counts Bin() failures, by protocol class name.
	// Provides metrics:
	//    pktengine_pack_failure_count
	PackFailureCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktengine_pack_failure_count",
			Help: "The total number of header pack failures encountered, by class.",
		}, []string{"class"})

	// UnknownDiscriminatorCount counts body bytes left un-dissected because no
	// handler was registered for the observed discriminator value.
	// Provides metrics:
	//    pktengine_unknown_discriminator_count
	UnknownDiscriminatorCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pktengine_unknown_discriminator_count",
			Help: "Body bytes left raw because no handler matched the discriminator, by owning class.",
		}, []string{"class"})

	// ListenerPanicCount counts change-listener callbacks that panicked and
	// were recovered rather than allowed to escape into caller code.
	// Provides metrics:
	//    pktengine_listener_panic_count
	ListenerPanicCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pktengine_listener_panic_count",
			Help: "Number of recovered panics from trigger-list change listeners.",
		},
	)

	// PredicatePanicCount counts trigger-list FindPos/FindValue predicates
	// that panicked and were recovered, treated as a non-match rather than
	// allowed to escape into caller code.
	// Provides metrics:
	//    pktengine_predicate_panic_count
	PredicatePanicCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pktengine_predicate_panic_count",
			Help: "Number of recovered panics from trigger-list search predicates.",
		},
	)

	// DissectLatencyUsecSummary measures per-call dissection latency.
	// Provides metrics:
	//    pktengine_dissect_latency_usec_summary
	DissectLatencyUsecSummary = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: "pktengine_dissect_latency_usec_summary",
		Help: "Latency of a single layer's dissect call, in microseconds.",
	}, []string{"class"})

	// PacketDepthHistogram tracks how many layers deep a dissected packet
	// tree ends up, useful for spotting corpus fixtures that never exercise
	// the upper layers.
	// Provides metrics:
	//    pktengine_packet_depth_bucket{lowest_layer="...", le="..."}
	PacketDepthHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pktengine_packet_depth",
			Help:    "Number of layers reached while dissecting a packet.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
		[]string{"lowest_layer"},
	)
)
