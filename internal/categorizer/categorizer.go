// Package categorizer implements the Categorizer: a deterministic
// classifier that maps a Bag of (path, size) records to one of the five
// semantic categories.
package categorizer

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"seedcurator/internal/category"
	"seedcurator/internal/pathlex"
)

// SizeThresh is the video size filter threshold (50 MiB) from spec.md §4.3.
const SizeThresh int64 = 52428800

var (
	// softwareRE detects iso images that are actually software installers
	// rather than disc video images (spec.md §4.3 step A.4).
	softwareRE = regexp.MustCompile(`(\b|_)(adobe|microsoft|windows|x64|x86|v\d+(\.\d+)+)(\b|_)`)

	// tvMarkerRE detects season/episode numbering in a path (spec.md §4.3
	// step D.5).
	tvMarkerRE = regexp.MustCompile(`\b(ep[\s_-]?\d{1,2}|s\d{1,2}e\d{1,2}|[se]\d{1,2})\b`)

	// digitRunRE finds maximal runs of digits for the Consecutive-Digit
	// structural series inference (spec.md §4.3 "Consecutive-Digit
	// algorithm").
	digitRunRE = regexp.MustCompile(`[0-9]+`)
)

// CompileAVRegex compiles the externally supplied AV-detection regex
// source using a POSIX-ERE-compatible engine, as spec.md §3 requires.
func CompileAVRegex(source string) (*regexp.Regexp, error) {
	re, err := regexp.CompilePOSIX(source)
	if err != nil {
		return nil, fmt.Errorf("compile av regex: %w", err)
	}
	return re, nil
}

// Classify implements spec.md §4.3's algorithm. bag must be non-empty
// (after dropping malformed records); avRegex is the compiled AV-detection
// regex from CompileAVRegex.
func Classify(bag category.Bag, avRegex *regexp.Regexp) (category.Category, error) {
	records := make([]category.Record, 0, len(bag))
	for _, r := range bag {
		if r.Size < 0 {
			fmt.Fprintf(os.Stderr, "categorizer: dropping record with negative size: %q\n", r.Path)
			continue
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("categorizer: empty bag")
	}

	// Step A: normalize and tally.
	typeBucket := map[category.Category]int64{}
	videoBucket := map[string]int64{}

	for _, r := range records {
		path := pathlex.ToLower(r.Path)
		root, ext := pathlex.SplitExt(path)

		var class extClass
		var videoKey string
		haveVideoKey := false

		switch {
		case ext == "iso":
			if softwareRE.MatchString(root) {
				class = extOther
			} else {
				class = extVideoPrimary
				videoKey = path // dual-use rule: adopt path, no canonicalization
				haveVideoKey = true
			}
		default:
			class = classify(ext)
			if class == extVideoPrimary {
				videoKey = pathlex.Canonicalize(root, ext)
				haveVideoKey = true
			}
		}

		typeBucket[typeForClass(class)] += r.Size
		if haveVideoKey {
			videoBucket[videoKey] += r.Size
		}
	}

	// Step B: pick dominant type, film > music > default on ties.
	chosen := argmaxType(typeBucket)

	// Step C.
	if chosen != category.Film {
		return chosen, nil
	}

	// Step D: refine.
	videoList := sortedBySizeDesc(videoBucket)
	videoList = applySizeFilter(videoList)
	paths := stripCommonPrefix(pathsOf(videoList))

	for _, p := range paths {
		if avRegex != nil && avRegex.MatchString(p) {
			return category.AV, nil
		}
	}
	for _, p := range paths {
		if tvMarkerRE.MatchString(p) {
			return category.TV, nil
		}
	}
	if len(paths) >= 3 && findFileGroups(paths) {
		return category.TV, nil
	}
	return category.Film, nil
}

func typeForClass(c extClass) category.Category {
	switch c {
	case extVideoPrimary, extVideoAccessory:
		return category.Film
	case extAudio:
		return category.Music
	default:
		return category.Default
	}
}

// argmaxType picks the category with the largest summed size, breaking
// ties film > music > default (spec.md §4.3 Step B / §9).
func argmaxType(bucket map[category.Category]int64) category.Category {
	priority := map[category.Category]int{
		category.Film:    0,
		category.Music:   1,
		category.Default: 2,
	}
	best := category.Default
	bestSize := int64(-1)
	for _, c := range []category.Category{category.Film, category.Music, category.Default} {
		size := bucket[c]
		if size > bestSize || (size == bestSize && priority[c] < priority[best]) {
			best = c
			bestSize = size
		}
	}
	return best
}

type videoEntry struct {
	path string
	size int64
}

func sortedBySizeDesc(bucket map[string]int64) []videoEntry {
	entries := make([]videoEntry, 0, len(bucket))
	for k, v := range bucket {
		entries = append(entries, videoEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].size != entries[j].size {
			return entries[i].size > entries[j].size
		}
		return entries[i].path < entries[j].path
	})
	return entries
}

// applySizeFilter implements the "bisect-right" filter: if the largest
// entry is >= SizeThresh, drop all entries below the threshold; otherwise
// keep everything.
func applySizeFilter(entries []videoEntry) []videoEntry {
	if len(entries) == 0 || entries[0].size < SizeThresh {
		return entries
	}
	out := entries[:0:0]
	for _, e := range entries {
		if e.size >= SizeThresh {
			out = append(out, e)
		}
	}
	return out
}

func pathsOf(entries []videoEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.path
	}
	return out
}

// stripCommonPrefix removes the longest directory-aligned common ancestor
// shared by every path in paths.
func stripCommonPrefix(paths []string) []string {
	if len(paths) < 2 {
		return paths
	}
	split := make([][]string, len(paths))
	minLen := -1
	for i, p := range paths {
		split[i] = strings.Split(p, "/")
		if minLen == -1 || len(split[i]) < minLen {
			minLen = len(split[i])
		}
	}
	common := 0
	for common < minLen {
		seg := split[0][common]
		match := true
		for _, s := range split[1:] {
			if s[common] != seg {
				match = false
				break
			}
		}
		if !match {
			break
		}
		common++
	}
	if common == 0 {
		return paths
	}
	prefix := strings.Join(split[0][:common], "/") + "/"
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.TrimPrefix(p, prefix)
	}
	return out
}

type groupKey struct {
	index int
	key   string
}

// findFileGroups implements the Consecutive-Digit algorithm: three or more
// surviving paths sharing a textual context and differing only in the
// integer run at the same split index trigger a TV-series inference.
func findFileGroups(paths []string) bool {
	groups := map[groupKey]map[int]bool{}

	for _, p := range paths {
		runs := digitRunRE.FindAllStringIndex(p, -1)
		prevEnd := 0
		for i, run := range runs {
			wordBefore := p[prevEnd:run[0]]
			prevEnd = run[1]

			key := lastComponent(wordBefore)
			key = stripNoise(key)

			num := atoiFast(p[run[0]:run[1]])

			gk := groupKey{index: i + 1, key: key}
			set := groups[gk]
			if set == nil {
				set = map[int]bool{}
				groups[gk] = set
			}
			set[num] = true
		}
	}

	for _, set := range groups {
		if len(set) >= 3 {
			return true
		}
	}
	return false
}

// lastComponent keeps only the tail of s within the current path
// component (drops everything up to and including the last '/').
func lastComponent(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// stripNoise removes whitespace, ASCII control characters, '.', '_', and
// '-' from s.
func stripNoise(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '.' || r == '_' || r == '-':
			continue
		case r <= 0x20 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func atoiFast(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
