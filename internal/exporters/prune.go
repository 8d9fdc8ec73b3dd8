package exporters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mrlokans/bookbuddy/internal/utils"
)

// PruneBackups deletes the oldest "<prefix>-*.csv" files in dir so that at
// most keep remain, and returns the removed paths. keep <= 0 keeps all.
// Backup names embed a sortable timestamp, so lexical order is age order.
func PruneBackups(dir, prefix string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	namePrefix := utils.SanitizeFilename(prefix) + "-"
	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, namePrefix) || filepath.Ext(name) != ".csv" {
			continue
		}
		backups = append(backups, name)
	}
	if len(backups) <= keep {
		return nil, nil
	}

	sort.Strings(backups)
	var removed []string
	for _, name := range backups[:len(backups)-keep] {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}
