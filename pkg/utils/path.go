package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// CreateFolder makes sure every given directory exists.
func CreateFolder(folderPath ...string) error {
	for _, folder := range folderPath {
		if folder == "" {
			continue
		}
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create folder %s: %w", folder, err)
		}
		logrus.Debugf("[STORAGE] Folder ready: %s", folder)
	}
	return nil
}

// DatabaseFile resolves the sqlite file used for estate data inside the storage dir.
func DatabaseFile(storagePath, name string) string {
	if filepath.IsAbs(name) || filepath.Dir(name) != "." {
		return name
	}
	return filepath.Join(storagePath, name)
}
