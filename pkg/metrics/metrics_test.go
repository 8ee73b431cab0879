package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	. "github.com/smartystreets/goconvey/convey"
)

func gather(reg *prometheus.Registry, name string) *dto.MetricFamily {
	families, err := reg.Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		Convey("When creating a manager with default names", func() {
			m := NewManager(WithPrometheusRegistry(reg))
			m.graphsBuilt.Inc()
			m.recordsSkipped.WithLabelValues("missing_side").Add(2)

			Convey("Then collectors are registered under the squadgraph namespace", func() {
				f := gather(reg, "squadgraph_pipeline_graphs_built_total")
				So(f, ShouldNotBeNil)
				So(f.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 1)

				skipped := gather(reg, "squadgraph_pipeline_records_skipped_total")
				So(skipped, ShouldNotBeNil)
				So(skipped.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "missing_side")
				So(skipped.GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 2)
			})
		})

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithPrometheusRegistry(reg),
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
			)
			m.transitionLatency.Observe(5)

			Convey("Then names, buckets and labels follow the options", func() {
				f := gather(reg, "test_unit_transition_latency_milliseconds")
				So(f, ShouldNotBeNil)
				h := f.GetMetric()[0].GetHistogram()
				So(h.GetSampleCount(), ShouldEqual, 1)
				So(len(h.GetBucket()), ShouldEqual, 2)
				So(f.GetMetric()[0].GetLabel()[0].GetName(), ShouldEqual, "env")
			})
		})

		Convey("When registering the same names twice on one registry", func() {
			NewManager(WithPrometheusRegistry(reg))

			Convey("Then registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(reg)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global recorders", t, func() {
		Convey("When recording pipeline metrics", func() {
			So(func() {
				RecordMatchAggregated()
				RecordRecordSkipped("foreign_unit")
				RecordDuplicateMatch()
				RecordFileIngested("json")
				RecordGraphBuilt()
				RecordGraphBuildLatency(1.5)
				RecordTransitionComputed()
				RecordTransitionRejected("season_mismatch")
				RecordTransitionLatency(0.2)
				UpdateArchiveGraphs(12)
				UpdateArchiveTransitions(11)
				RecordArtifactWritten("graph")
				RecordSinkWrite("mongo", "ok")
				RecordRun("ok", 1200)
			}, ShouldNotPanic)
		})

		Convey("When recording queue and worker metrics", func() {
			So(func() {
				UpdateQueueSize(3)
				UpdateQueueCapacity(64)
				UpdateQueueUtilization(3.0 / 64.0)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerCount(4)
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
			}, ShouldNotPanic)
		})

		Convey("When recording HTTP, error and system metrics", func() {
			So(func() {
				RecordHTTPRequest("/summary", "GET", "200")
				RecordHTTPRequestDuration("/summary", "GET", "200", 0.8)
				RecordErrorByComponent("ingest", "malformed")
				RecordErrorByEndpoint("/graphs", "GET", "not_found")
				UpdateSystemMemoryUsage(1 << 20)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
		})

		Convey("Then they are exposed on the custom registry", func() {
			RecordGraphBuilt()
			So(gather(GetRegistry(), "squadgraph_pipeline_graphs_built_total"), ShouldNotBeNil)
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		reg := prometheus.NewRegistry()
		m := NewManager(WithPrometheusRegistry(reg))

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					m.matchesAggregated.Inc()
				}
			}()
		}
		wg.Wait()

		So(gather(reg, "squadgraph_pipeline_matches_aggregated_total").GetMetric()[0].GetCounter().GetValue(), ShouldEqual, 800)
	})
}
