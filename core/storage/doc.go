// Package storage archives run reports in S3-compatible object storage.
//
// The Client interface wraps the Minio SDK so that callers (and tests)
// depend on a small surface rather than the concrete client. Reports are
// uploaded as JSON under reports/<table>/<run_id>.json.
package storage
