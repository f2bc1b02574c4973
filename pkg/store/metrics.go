package store

import (
	"io/fs"
	"path/filepath"
)

// DiskMetrics is a compact on-disk usage view exposed to the metrics
// collectors.
type DiskMetrics struct {
	TotalBytes uint64
	SSTables   int
}

// GetDiskMetrics returns best-effort size metrics about the pebble DB by
// walking the database directory.
func GetDiskMetrics() DiskMetrics {
	var m DiskMetrics
	if db == nil || dbPath == "" {
		return m
	}
	_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return nil
		}
		m.TotalBytes += uint64(fi.Size())
		if filepath.Ext(p) == ".sst" {
			m.SSTables++
		}
		return nil
	})
	return m
}
