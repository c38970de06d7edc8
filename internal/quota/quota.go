// Package quota implements the QuotaEngine: it evicts the least recently
// active torrents until the seed directory's disk usage falls back under
// the configured quota (spec.md §4.6).
package quota

import (
	"context"
	"fmt"
	"sort"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"

	"seedcurator/internal/applog"
	"seedcurator/internal/rpcclient"
)

// Candidate is one torrent eligible for eviction: 100%-complete and
// seeding from seed-dir.
type Candidate struct {
	ID           int64
	Name         string
	Size         int64
	ActivityDate int64
}

// Engine evicts torrents to keep the seed directory within quota.
type Engine struct {
	RPC *rpcclient.Client
	Log *applog.Logger
}

// New returns an Engine wired to rpc and log.
func New(rpc *rpcclient.Client, log *applog.Logger) *Engine {
	return &Engine{RPC: rpc, Log: log}
}

// Run computes target = max(quota+totalSize-diskSize, quota-freeSpace,
// reserve-freeSpace); if target <= 0 the directory is healthy and Run is a
// no-op. reserve is the operator's reserve-space-gib floor converted to
// bytes: it forces an eviction pass purely to keep that much space free,
// even when the quota term alone is satisfied. Otherwise Run evicts
// candidates oldest-activity-first until the accumulated size meets
// target, in a single torrent-remove call.
func (e *Engine) Run(ctx context.Context, quota, totalSize, diskSize, freeSpace, reserve int64, candidates []Candidate) error {
	target := max64(max64(quota+totalSize-diskSize, quota-freeSpace), reserve-freeSpace)
	if target <= 0 {
		return nil
	}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ActivityDate < sorted[j].ActivityDate
	})

	var ids []int64
	var sum int64
	for _, c := range sorted {
		if sum >= target {
			break
		}
		ids = append(ids, c.ID)
		sum += c.Size
	}
	if len(ids) == 0 {
		return nil
	}

	if err := e.RPC.TorrentRemove(ctx, ids); err != nil {
		return fmt.Errorf("quota: torrent-remove: %w", err)
	}

	evicted := make(map[int64]Candidate, len(ids))
	for _, c := range sorted {
		evicted[c.ID] = c
	}
	for _, id := range ids {
		c := evicted[id]
		e.Log.Remove(c.Name, c.Size)
	}
	log.Info().
		Int("count", len(ids)).
		Str("reclaimed", units.BytesSize(float64(sum))).
		Str("target", units.BytesSize(float64(target))).
		Msg("quota: evicted torrents")
	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
