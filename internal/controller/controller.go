// Package controller orchestrates one run of the engine: Placer, an
// inventory fetch, Cleaner, QuotaEngine, and resuming paused torrents,
// under a single advisory lock (spec.md §4.8).
package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"seedcurator/internal/applog"
	"seedcurator/internal/cleaner"
	"seedcurator/internal/config"
	"seedcurator/internal/diskstat"
	"seedcurator/internal/lock"
	"seedcurator/internal/placer"
	"seedcurator/internal/quota"
	"seedcurator/internal/rpcclient"
)

// transmissionStatusStopped is the daemon's status code for a paused
// torrent.
const transmissionStatusStopped = 0

// Trigger describes what prompted this run.
type Trigger struct {
	// TorrentDone is true for a torrent-done callback; false for a
	// periodic maintenance tick.
	TorrentDone bool
	TorrentID   int64
	Name        string
	DownloadDir string
}

// Controller ties the engine's components together for one run.
type Controller struct {
	Config   *config.Config
	RPC      *rpcclient.Client
	Log      *applog.Logger
	LockPath string
}

// New returns a Controller wired to cfg and the daemon at rpc.
func New(cfg *config.Config, rpc *rpcclient.Client, lockPath string) *Controller {
	return &Controller{Config: cfg, RPC: rpc, Log: applog.New(), LockPath: lockPath}
}

// Run executes one tick per spec.md §4.8's ordering. It acquires the
// advisory lock first: blocking for a torrent-done callback, exiting
// cleanly without error for a maintenance tick that finds the lock held.
func (c *Controller) Run(ctx context.Context, t Trigger) error {
	l, err := c.acquireLock(t)
	if err != nil {
		if err == lock.ErrHeld {
			log.Debug().Msg("controller: lock held by another instance, skipping tick")
			return nil
		}
		return err
	}
	defer func() {
		if ferr := c.Log.Flush(c.Config.LogFile); ferr != nil {
			log.Error().Err(ferr).Msg("controller: failed to flush log")
		}
		l.Release()
	}()

	// 1. Placer, only for torrent-done callbacks.
	if t.TorrentDone && t.TorrentID != 0 {
		p := placer.New(c.Config, c.RPC, c.Log)
		if err := p.Place(ctx, t.TorrentID, t.Name, t.DownloadDir); err != nil {
			log.Error().Err(err).Int64("id", t.TorrentID).Msg("controller: placer failed")
		}
	}

	// 2. Inventory fetch.
	torrents, err := c.RPC.TorrentGet(ctx, nil)
	if err != nil {
		log.Error().Err(err).Msg("controller: inventory fetch failed, skipping remaining steps")
		return nil
	}

	// 3. Cleaner.
	known := make(map[string]bool, len(torrents))
	for _, tr := range torrents {
		known[tr.Name] = true
	}
	cl := cleaner.New(c.Config.SeedDir, c.Config.WatchDir, c.Config.DryRun)
	if err := cl.Run(known); err != nil {
		log.Error().Err(err).Msg("controller: cleaner failed")
	}

	// 4. QuotaEngine.
	if err := c.runQuota(ctx, torrents); err != nil {
		log.Error().Err(err).Msg("controller: quota engine failed")
	}

	// 5. Resume paused torrents.
	if anyPaused(torrents) {
		if err := c.RPC.TorrentStart(ctx); err != nil {
			log.Error().Err(err).Msg("controller: resume paused torrents failed")
		}
	}

	return nil
}

func (c *Controller) acquireLock(t Trigger) (*lock.Lock, error) {
	if t.TorrentDone {
		return lock.Acquire(c.LockPath)
	}
	return lock.TryAcquire(c.LockPath)
}

func (c *Controller) runQuota(ctx context.Context, torrents []rpcclient.Torrent) error {
	if c.Config.QuotaGiB == 0 && c.Config.ReserveSpaceGiB == 0 {
		return nil
	}

	var totalSize int64
	var candidates []quota.Candidate
	for _, tr := range torrents {
		if !sameDir(tr.DownloadDir, c.Config.SeedDir) {
			continue
		}
		totalSize += tr.SizeWhenDone
		if tr.PercentDone >= 1.0 {
			candidates = append(candidates, quota.Candidate{
				ID:           tr.ID,
				Name:         tr.Name,
				Size:         tr.SizeWhenDone,
				ActivityDate: tr.ActivityDate,
			})
		}
	}

	stat, err := diskstat.Get(c.Config.SeedDir)
	if err != nil {
		return fmt.Errorf("controller: disk stats: %w", err)
	}

	engine := quota.New(c.RPC, c.Log)
	return engine.Run(ctx, c.Config.QuotaBytes(), totalSize, stat.Total, stat.Free, c.Config.ReserveSpaceBytes(), candidates)
}

func anyPaused(torrents []rpcclient.Torrent) bool {
	for _, tr := range torrents {
		if tr.Status == transmissionStatusStopped {
			return true
		}
	}
	return false
}

// sameDir reports whether a and b name the same directory: equal after
// cleaning, or the same file by filesystem identity.
func sameDir(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
