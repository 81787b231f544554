// Package server exposes the observability surface of the reconciler: a
// health endpoint and the Prometheus metrics scrape endpoint, served by
// Fiber. The reconciler itself is a CLI; the server exists so scheduled
// runs can be monitored.
package server
