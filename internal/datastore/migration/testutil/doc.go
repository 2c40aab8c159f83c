// Package testutil provides builders and seeders for migration tests.
//
// Builders produce stored field maps in the legacy shapes; seeders write them straight
// into a memstore so tests start from a known layout without counting setup commits.
package testutil
