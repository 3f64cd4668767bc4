/*
Package metrics wraps a datastore.Driver with Prometheus instrumentation.

	driver = metrics.Instrument(driver, prometheus.DefaultRegisterer)

Every call is counted by operation, column family and consistency level;
failures and latency are recorded under the same labels, and slices also
report how many columns they returned.
*/
package metrics
