package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Footprint returns the on-disk size in bytes of each path (file or directory).
// Missing paths report 0.
func Footprint(paths map[string]string) (map[string]int64, error) {
	out := make(map[string]int64, len(paths))
	for name, p := range paths {
		if p == "" {
			continue
		}
		var total int64
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		out[name] = total
	}
	return out, nil
}
