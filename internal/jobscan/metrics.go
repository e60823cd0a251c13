package jobscan

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var meter = otel.Meter("resume-scanner/jobscan")

type instruments struct {
	scans        metric.Int64Counter
	remediations metric.Int64Counter
	extractions  metric.Float64Histogram
	score        metric.Int64Histogram
}

var getInstruments = sync.OnceValue(func() instruments {
	fallback := noop.NewMeterProvider().Meter("")
	var inst instruments
	var err error

	if inst.scans, err = meter.Int64Counter(
		"jobscan_scans_total",
		metric.WithDescription("Scans and rescans submitted, by outcome."),
	); err != nil {
		otel.Handle(err)
		inst.scans, _ = fallback.Int64Counter("")
	}
	if inst.remediations, err = meter.Int64Counter(
		"jobscan_remediations_total",
		metric.WithDescription("Correction modals handled during extraction, by outcome."),
	); err != nil {
		otel.Handle(err)
		inst.remediations, _ = fallback.Int64Counter("")
	}
	if inst.extractions, err = meter.Float64Histogram(
		"jobscan_extraction_seconds",
		metric.WithDescription("Time spent reading one match report."),
		metric.WithUnit("s"),
	); err != nil {
		otel.Handle(err)
		inst.extractions, _ = fallback.Float64Histogram("")
	}
	if inst.score, err = meter.Int64Histogram(
		"jobscan_match_score",
		metric.WithDescription("Match rate of extracted reports."),
	); err != nil {
		otel.Handle(err)
		inst.score, _ = fallback.Int64Histogram("")
	}
	return inst
})
