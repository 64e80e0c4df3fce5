//go:build sqlite_vec && cgo

package store

import (
	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
)

// Builds tagged sqlite_vec load the extension into every new connection,
// which turns on SQL-side ranking in SearchSimilar.
func init() {
	vec.Auto()
	vecCompiled = true
}
