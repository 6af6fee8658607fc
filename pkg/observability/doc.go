/*
Package observability turns engine lifecycle hooks into Prometheus metrics.

Metrics are registered on a caller-supplied registerer so tests and embedders can keep
them off the global registry. Hooks returns the LifecycleHooks that feed them; merge it
with any other hooks with LifecycleHooks.Merge.
*/
package observability
