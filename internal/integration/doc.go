// Package integration holds end-to-end tests that run the order flow
// against a real PostgreSQL started with testcontainers. They are compiled
// only with the "integration" build tag:
//
//	go test -tags integration ./internal/integration/...
package integration
