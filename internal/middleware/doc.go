// Package middleware provides HTTP middleware for the snapspot API: request
// IDs, access logging and Prometheus request metrics.
package middleware
