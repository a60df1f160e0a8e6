// Package testutil provides test utilities for datafilters:
//   - Miniredis helpers for the catalog cache and export queue (miniredis.go)
//   - Post fixtures and an in-memory dataset source (fixtures.go)
//
// Nothing here needs Docker or network access.
package testutil
