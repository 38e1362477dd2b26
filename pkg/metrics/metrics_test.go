package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a private registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then collectors are registered under the namespace", func() {
				m.sessionsCreated.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_sessions_created_total"], ShouldBeTrue)
			})
		})
	})
}

// sample returns the value of the named series in the global registry whose
// labels include want, or 0 when absent.
func sample(name string, want map[string]string) float64 {
	families, err := GetRegistry().Gather()
	if err != nil {
		return 0
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
	metricLoop:
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metricLoop
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			}
		}
	}
	return 0
}

func TestRecordAddition(t *testing.T) {
	Convey("Given the global manager", t, func() {
		before := sample("caloric_recipe_ingredient_additions_total", map[string]string{"outcome": OutcomeReady})
		resets := sample("caloric_recipe_overflow_resets_total", nil)

		Convey("When recording a ready addition", func() {
			So(RecordAddition(OutcomeReady, 0.8), ShouldBeNil)
			So(sample("caloric_recipe_ingredient_additions_total", map[string]string{"outcome": OutcomeReady}), ShouldEqual, before+1)
			So(sample("caloric_recipe_overflow_resets_total", nil), ShouldEqual, resets)
		})

		Convey("When recording an overflow", func() {
			So(RecordAddition(OutcomeOverflow, 1.0), ShouldBeNil)
			So(sample("caloric_recipe_overflow_resets_total", nil), ShouldEqual, resets+1)
		})

		Convey("When recording an unknown outcome", func() {
			err := RecordAddition("burnt", 0)
			So(errors.Is(err, ErrUnknownOutcome), ShouldBeTrue)
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the package recorders", t, func() {
		So(func() {
			UpdateSessionsActive(3)
			RecordSessionCreated()
			RecordSessionExpired()
			RecordSessionDeleted()
			RecordInitialization()
			RecordEngineReset()
			RecordReplay()
			RecordEngineError("unknown_ingredient")
			RecordHTTPRequest("sessions", "POST", "201")
			RecordHTTPRequestDuration("sessions", "POST", "201", 1.5)
			RecordErrorByEndpoint("sessions", "POST", "client_error")
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(4)
		}, ShouldNotPanic)

		So(sample("caloric_recipe_sessions_active", nil), ShouldEqual, 3)
		So(GetRegistry(), ShouldNotBeNil)
	})
}
