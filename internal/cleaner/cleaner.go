// Package cleaner implements the Cleaner: it deletes seed-dir orphans and
// empty watch-dir .torrent placeholders (spec.md §4.7).
package cleaner

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog/log"
)

// batchSize is the number of obsolete paths processed per batch (spec.md
// §4.7); within a batch each path is removed by its own os.RemoveAll call.
const batchSize = 100

// Cleaner removes filesystem state the daemon no longer references.
type Cleaner struct {
	SeedDir  string
	WatchDir string
	// DryRun, when true, only reports obsolete entries without deleting.
	DryRun bool
}

// New returns a Cleaner for seedDir/watchDir. watchDir may be empty to
// disable the watch-dir pass.
func New(seedDir, watchDir string, dryRun bool) *Cleaner {
	return &Cleaner{SeedDir: seedDir, WatchDir: watchDir, DryRun: dryRun}
}

// Run executes both passes. knownNames is the set of torrent names the
// daemon currently reports.
func (c *Cleaner) Run(knownNames map[string]bool) error {
	obsolete, err := c.seedDirObsolete(knownNames)
	if err != nil {
		return err
	}
	watchObsolete, err := c.watchDirObsolete()
	if err != nil {
		return err
	}
	obsolete = append(obsolete, watchObsolete...)

	if c.DryRun {
		for _, p := range obsolete {
			log.Info().Str("path", p).Msg("cleaner: would remove (dry-run)")
		}
		return nil
	}
	return deleteInBatches(obsolete)
}

func (c *Cleaner) seedDirObsolete(knownNames map[string]bool) ([]string, error) {
	entries, err := os.ReadDir(c.SeedDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cleaner: read seed-dir %q: %w", c.SeedDir, err)
	}

	var obsolete []string
	for _, e := range entries {
		name := e.Name()
		if hasReservedPrefix(name) {
			continue
		}
		stripped := strings.TrimSuffix(name, ".part")
		if knownNames[name] || knownNames[stripped] {
			continue
		}
		obsolete = append(obsolete, path.Join(c.SeedDir, name))
	}
	return obsolete, nil
}

func (c *Cleaner) watchDirObsolete() ([]string, error) {
	if c.WatchDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(c.WatchDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cleaner: read watch-dir %q: %w", c.WatchDir, err)
	}

	var obsolete []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".torrent") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			obsolete = append(obsolete, path.Join(c.WatchDir, name))
		}
	}
	return obsolete, nil
}

func hasReservedPrefix(name string) bool {
	if name == "" {
		return false
	}
	switch name[0] {
	case '.', '#', '@':
		return true
	}
	return false
}

func deleteInBatches(paths []string) error {
	for start := 0; start < len(paths); start += batchSize {
		end := start + batchSize
		if end > len(paths) {
			end = len(paths)
		}
		for _, p := range paths[start:end] {
			if err := os.RemoveAll(p); err != nil {
				return fmt.Errorf("cleaner: remove %q: %w", p, err)
			}
			log.Info().Str("path", p).Msg("cleaner: removed")
		}
	}
	return nil
}
