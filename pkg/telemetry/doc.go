// Package telemetry exports the metric hooks of augmented hosts to
// Prometheus.
//
// A Recorder implements auto.Recorder and is passed to a class at
// definition time:
//
//	reg := prometheus.NewRegistry()
//	rec := telemetry.NewRecorder(telemetry.WithRegistry(reg))
//	class := auto.MustDefine[Counter](nil, auto.WithRecorder(rec))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package telemetry
