// Package placer implements the Placer: given a finished torrent, it
// either categorizes and copies its data out to the right destination, or
// relocates it into the seed directory (spec.md §4.5).
package placer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"

	"seedcurator/internal/applog"
	"seedcurator/internal/catproto"
	"seedcurator/internal/category"
	"seedcurator/internal/config"
	"seedcurator/internal/fscopy"
	"seedcurator/internal/pathlex"
	"seedcurator/internal/rpcclient"
	"seedcurator/internal/seederr"
)

// Placer coordinates categorization and copy for one finished torrent.
type Placer struct {
	Config *config.Config
	RPC    *rpcclient.Client
	Log    *applog.Logger
}

// New returns a Placer wired to cfg, rpc, and log.
func New(cfg *config.Config, rpc *rpcclient.Client, log *applog.Logger) *Placer {
	return &Placer{Config: cfg, RPC: rpc, Log: log}
}

// Place runs the Placer for torrent id. name and downloadDir may be empty,
// in which case they are fetched via torrent-get.
func (p *Placer) Place(ctx context.Context, id int64, name, downloadDir string) error {
	if name == "" || downloadDir == "" {
		torrents, err := p.RPC.TorrentGet(ctx, []int64{id})
		if err != nil {
			return fmt.Errorf("placer: fetch torrent %d: %w", id, err)
		}
		if len(torrents) == 0 {
			return fmt.Errorf("placer: torrent %d not found", id)
		}
		name = torrents[0].Name
		downloadDir = torrents[0].DownloadDir
	}

	src := path.Clean(path.Join(downloadDir, name))

	if sameDir(downloadDir, p.Config.SeedDir) {
		return p.placeInPlace(ctx, id, name, src)
	}
	return p.relocateExternal(ctx, id, name, src)
}

func (p *Placer) placeInPlace(ctx context.Context, id int64, name, src string) error {
	torrents, err := p.RPC.TorrentGet(ctx, []int64{id})
	if err != nil {
		p.Log.Error(name, err)
		return err
	}
	var files []rpcclient.FileInfo
	if len(torrents) > 0 {
		files = torrents[0].Files
	}

	bag := make(category.Bag, 0, len(files))
	var totalSize int64
	for _, f := range files {
		bag = append(bag, category.Record{Path: f.Name, Size: f.Length})
		totalSize += f.Length
	}
	log.Debug().Str("name", name).Str("size", units.HumanSize(float64(totalSize))).Msg("placer: classifying")

	cat, err := p.classify(ctx, bag)
	if err != nil {
		cat = category.Default
	}

	destRoot := path.Clean(p.Config.DestinationFor(string(cat)))

	info, err := os.Stat(src)
	if err != nil {
		err = seederr.Filesystem(fmt.Errorf("placer: stat %q: %w", src, err))
		p.Log.Error(name, err)
		return err
	}

	dest := destRoot
	if !info.IsDir() {
		stem, _ := pathlex.SplitExt(name)
		dest = path.Join(destRoot, stem)
	}

	if err := fscopy.Copy(src, dest); err != nil {
		err = seederr.Filesystem(fmt.Errorf("placer: copy %q -> %q: %w", src, dest, err))
		p.Log.Error(name, err)
		return err
	}
	p.Log.Finish(destRoot, name)
	return nil
}

func (p *Placer) relocateExternal(ctx context.Context, id int64, name, src string) error {
	dest := path.Join(p.Config.SeedDir, name)
	if err := fscopy.Copy(src, dest); err != nil {
		err = seederr.Filesystem(fmt.Errorf("placer: copy %q -> %q: %w", src, dest, err))
		p.Log.Error(name, err)
		return err
	}
	if err := p.RPC.TorrentSetLocation(ctx, id, p.Config.SeedDir); err != nil {
		p.Log.Error(name, err)
		return fmt.Errorf("placer: set-location %d: %w", id, err)
	}
	p.Log.Finish(p.Config.SeedDir, name)
	return nil
}

// classify shells out to the configured categorizer-program, speaking the
// null-terminated stdin protocol and reading a category token from
// stdout (spec.md §6).
func (p *Placer) classify(ctx context.Context, bag category.Bag) (category.Category, error) {
	var stdin bytes.Buffer
	if err := catproto.Encode(&stdin, bag); err != nil {
		return "", fmt.Errorf("placer: encode bag: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.Config.CategorizerProgram, p.Config.RegexFile)
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("placer: categorizer-program: %w: %s", err, stderr.String())
	}

	return catproto.ParseCategory(strings.TrimSpace(stdout.String()))
}

// sameDir reports whether a and b refer to the same directory, by
// filesystem identity first and lexical path equality as a fallback
// (spec.md §9's ambiguity note).
func sameDir(a, b string) bool {
	if path.Clean(a) == path.Clean(b) {
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
