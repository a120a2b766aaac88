package utils

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindScriptFiles recursively finds all .dsl files under dir, skipping
// hidden directories.
func FindScriptFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ".dsl" {
			files = append(files, path)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}
