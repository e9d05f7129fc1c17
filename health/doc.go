// Package health reports whether the pieces a vendora process depends on
// are usable: the backend, the local store and the backend circuit breaker.
//
// A Checker reports a Result with a Status of Healthy, Degraded or
// Unhealthy. An Aggregator runs a set of checkers in parallel, each under
// its own time bound, and folds their results into a Report.
//
//	agg := health.NewAggregator(health.AggregatorConfig{CheckTimeout: 2 * time.Second})
//	agg.Register(health.BackendCheck(client))
//	agg.Register(health.StoreCheck("store", st))
//	report := agg.Run(ctx)
//
// Routes mounts the probe endpoints on a gorilla/mux router:
//
//	GET /healthz         liveness
//	GET /readyz          readiness (503 when unhealthy)
//	GET /health          JSON report
//	GET /health/{check}  a single check
package health
