//go:build sqlite_cgo

package storage

// cgo build: github.com/mattn/go-sqlite3. FTS5 is only compiled in when the
// sqlite_fts5 tag is also set.
//
//   CGO_ENABLED=1 go build -tags "sqlite_cgo,sqlite_fts5" ./...

import (
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the database/sql driver name
	DriverName = "sqlite3"

	// BuildMode is reported by the version command and get_status
	BuildMode = "cgo"
)

// dataSourceName sets the busy timeout through go-sqlite3's DSN parameter
func dataSourceName(path string) string {
	return fmt.Sprintf("%s?_busy_timeout=%d", path, busyTimeoutMS)
}
