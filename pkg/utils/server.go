package utils

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const serverIDFile = ".server_id"

// GetPersistentServerID returns the node id used to tag cross-node simulator
// broadcasts. An explicit override wins; otherwise the id stored under
// storagePath is reused, and a new one is derived from the hostname (or a
// random uuid) and persisted for the next start.
func GetPersistentServerID(override, storagePath string) string {
	if id := strings.TrimSpace(override); id != "" {
		return id
	}

	idFile := filepath.Join(storagePath, serverIDFile)
	if data, err := os.ReadFile(idFile); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := "estate-" + hostSlug()
	if id == "estate-" {
		id = "estate-" + strings.SplitN(uuid.NewString(), "-", 2)[0]
	}

	if err := CreateFolder(storagePath); err == nil {
		if err := os.WriteFile(idFile, []byte(id), 0644); err != nil {
			logrus.WithError(err).Warn("[STORAGE] Could not persist server id")
		}
	}
	return id
}

func hostSlug() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "localhost" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, hostname)
}
