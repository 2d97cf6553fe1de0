/*
Package metrics provides Prometheus metrics collection and exposition for
FORGE.

Metric names are registered under the forge_ namespace and exposed over
HTTP for scraping via Handler(). Coverage is deliberately the same share
of the codebase the teacher gave metrics: a handful of gauges/histograms
per component plus the Timer helper, not pervasive call-site
instrumentation.
*/
package metrics
