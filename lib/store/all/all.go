// Package all is a meta-package that imports every storage backend so that
// importing it registers them all.
package all

import (
	_ "github.com/sortcha/sortcha/lib/store/bbolt"
	_ "github.com/sortcha/sortcha/lib/store/memory"
	_ "github.com/sortcha/sortcha/lib/store/valkey"
)
