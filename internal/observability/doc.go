// Package observability builds the service logger, the per-request access
// log middleware and the Prometheus collectors for authentication outcomes.
package observability
