//go:build !sqlite_cgo

package storage

// Default build: modernc.org/sqlite, a pure Go SQLite with FTS5 compiled in.
//
//   CGO_ENABLED=0 go build ./...

import (
	"fmt"

	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver name
	DriverName = "sqlite"

	// BuildMode is reported by the version command and get_status
	BuildMode = "purego"
)

// dataSourceName sets the busy timeout through modernc's _pragma parameter
func dataSourceName(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, busyTimeoutMS)
}
