package storage

import (
	"fmt"
	"path/filepath"
	"time"
)

// OutputPath returns <dir>/<prefix>_<YYYYMMDD_HHMMSS>.<ext>.
func OutputPath(dir, prefix, ext string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", prefix, t.Format("20060102_150405"), ext))
}
