/*
Package observability exposes the tracking engine as Prometheus metrics.

Metrics are fed by the engine's TrackerHooks and by the observer hub's
hooks, so nothing here touches engine state directly:

	m := observability.New(prometheus.NewRegistry())
	hub := broadcast.NewHub(m.HubOptions()...)
	eng := runtime.NewEngine(store, lifecycle, hub, runtime.WithHooks(m.Hooks()))
*/
package observability
