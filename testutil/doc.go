// Package testutil provides deterministic data generation helpers for
// tests and benchmarks.
package testutil
