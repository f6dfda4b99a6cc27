package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered on that registry", func() {
				So(manager, ShouldNotBeNil)
				manager.fetchesTotal.WithLabelValues("warscroll", "reloaded").Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				So(families[0].GetName(), ShouldStartWith, "test_unit_")
			})
		})

		Convey("When creating twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording fetches", func() {
			before := testutil.ToFloat64(globalManager.fetchesTotal.WithLabelValues("faction", "reloaded"))
			RecordFetch("faction", "reloaded", 0.2)
			RecordFetch("faction", "reloaded", 0.3)

			Convey("Then the counter advances", func() {
				after := testutil.ToFloat64(globalManager.fetchesTotal.WithLabelValues("faction", "reloaded"))
				So(after-before, ShouldEqual, float64(2))
			})
		})

		Convey("When updating dataset gauges", func() {
			UpdateDatasetLoaded("league", 42, 1700000000)

			Convey("Then the gauges reflect the last load", func() {
				So(testutil.ToFloat64(globalManager.rowsLoaded.WithLabelValues("league")), ShouldEqual, float64(42))
				So(testutil.ToFloat64(globalManager.lastLoadUnix.WithLabelValues("league")), ShouldEqual, float64(1700000000))
			})
		})

		Convey("When recording the remaining series", func() {
			So(func() {
				RecordStaleServe("warscroll")
				RecordCoalescedRefresh("warscroll")
				RecordCommand("impact", "ok", 0.01)
				RecordNoMatch("impact")
				RecordFieldUnavailable("warscroll", "win_rate_without")
				RecordHTTPRequest("commands", "POST", "200", 0.02)
				RecordScheduledRefresh("ok")
			}, ShouldNotPanic)
		})

		Convey("GetRegistry exposes the custom registry", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
