/*
Package observability turns poll loop hooks into Prometheus metrics and structured
log records.

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	loop := poll.New(poll.WithHooks(observability.Chain(
		metrics.Hooks(),
		observability.LogHooks(logger),
	)))
*/
package observability
