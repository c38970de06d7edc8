package categorizer

import (
	"math/rand"
	"regexp"
	"testing"

	"seedcurator/internal/category"
)

// canonicalAVRegex mirrors the kind of pattern an operator would supply:
// a short alphabetic code, a hyphen, then a numeric code.
func canonicalAVRegex(t *testing.T) *regexp.Regexp {
	t.Helper()
	re, err := CompileAVRegex(`[a-z]{2,6}-[0-9]{2,6}`)
	if err != nil {
		t.Fatalf("CompileAVRegex: %v", err)
	}
	return re
}

func classifyOrFatal(t *testing.T, bag category.Bag) category.Category {
	t.Helper()
	cat, err := Classify(bag, canonicalAVRegex(t))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	return cat
}

func TestScenario1_AVWinsOverSizeHeuristics(t *testing.T) {
	bag := category.Bag{{Path: "Foo/ABP-123.mkv", Size: 2_000_000_000}}
	if got := classifyOrFatal(t, bag); got != category.AV {
		t.Errorf("got %q, want %q", got, category.AV)
	}
}

func TestScenario2_SeriesBySxxEyy(t *testing.T) {
	bag := category.Bag{
		{Path: "Show/Show.S02E01.mkv", Size: 3_000_000_000},
		{Path: "Show/Show.S02E02.mkv", Size: 3_000_000_000},
	}
	if got := classifyOrFatal(t, bag); got != category.TV {
		t.Errorf("got %q, want %q", got, category.TV)
	}
}

func TestScenario3_SeriesByConsecutiveDigitMarker(t *testing.T) {
	bag := category.Bag{
		{Path: "Anime/ep01.mkv", Size: 400_000_000},
		{Path: "Anime/ep02.mkv", Size: 400_000_000},
		{Path: "Anime/ep03.mkv", Size: 400_000_000},
	}
	if got := classifyOrFatal(t, bag); got != category.TV {
		t.Errorf("got %q, want %q", got, category.TV)
	}
}

func TestScenario3b_SeriesByPureStructuralRule(t *testing.T) {
	// "clip01" etc. do not match the ep/SxxEyy/[se]NN marker regex, so
	// this only fires through the Consecutive-Digit algorithm.
	bag := category.Bag{
		{Path: "Video/clip01.mkv", Size: 400_000_000},
		{Path: "Video/clip02.mkv", Size: 400_000_000},
		{Path: "Video/clip03.mkv", Size: 400_000_000},
	}
	if got := classifyOrFatal(t, bag); got != category.TV {
		t.Errorf("got %q, want %q", got, category.TV)
	}
}

func TestScenario4_DiscImageOfMovie(t *testing.T) {
	bag := category.Bag{{Path: "MyMovie/MyMovie.iso", Size: 30_000_000_000}}
	if got := classifyOrFatal(t, bag); got != category.Film {
		t.Errorf("got %q, want %q", got, category.Film)
	}
}

func TestScenario5_DiscImageOfSoftware(t *testing.T) {
	bag := category.Bag{{Path: "Adobe_Photoshop_v24.1/setup.iso", Size: 3_000_000_000}}
	if got := classifyOrFatal(t, bag); got != category.Default {
		t.Errorf("got %q, want %q", got, category.Default)
	}
}

func TestScenario6_MusicAlbum(t *testing.T) {
	var bag category.Bag
	for i := 0; i < 10; i++ {
		bag = append(bag, category.Record{Path: "Album/NN Title.flac", Size: 40_000_000})
	}
	if got := classifyOrFatal(t, bag); got != category.Music {
		t.Errorf("got %q, want %q", got, category.Music)
	}
}

func TestScenario7_JunkFilesDoNotOverrideLargeVideo(t *testing.T) {
	bag := category.Bag{{Path: "Movie/Movie.2023.mkv", Size: 2 << 30}}
	for i := 0; i < 20; i++ {
		bag = append(bag, category.Record{Path: "Movie/sample.txt", Size: 10 * 1024})
	}
	if got := classifyOrFatal(t, bag); got != category.Film {
		t.Errorf("got %q, want %q", got, category.Film)
	}
}

func TestTwoEqualSizeVideosDoNotFireSeries(t *testing.T) {
	bag := category.Bag{
		{Path: "Video/clip01.mkv", Size: 400_000_000},
		{Path: "Video/clip02.mkv", Size: 400_000_000},
	}
	if got := classifyOrFatal(t, bag); got != category.Film {
		t.Errorf("got %q, want %q", got, category.Film)
	}
}

func TestEmptyBagIsSetupError(t *testing.T) {
	if _, err := Classify(category.Bag{}, canonicalAVRegex(t)); err == nil {
		t.Error("expected an error for an empty bag")
	}
}

func TestNegativeSizeRecordIsDropped(t *testing.T) {
	bag := category.Bag{
		{Path: "Show/Show.S01E01.mkv", Size: 3_000_000_000},
		{Path: "Show/Show.S01E02.mkv", Size: 3_000_000_000},
		{Path: "Show/garbage", Size: -1},
	}
	got := classifyOrFatal(t, bag)
	if got != category.TV {
		t.Errorf("got %q, want %q", got, category.TV)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	bag := category.Bag{
		{Path: "Anime/ep01.mkv", Size: 400_000_000},
		{Path: "Anime/ep02.mkv", Size: 400_000_000},
		{Path: "Anime/ep03.mkv", Size: 400_000_000},
	}
	re := canonicalAVRegex(t)
	first, err := Classify(bag, re)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := Classify(bag, re)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if got != first {
			t.Fatalf("Classify is not deterministic: got %q, first was %q", got, first)
		}
	}
}

func TestClassifyIsPermutationInvariant(t *testing.T) {
	base := category.Bag{
		{Path: "Anime/ep01.mkv", Size: 400_000_000},
		{Path: "Anime/ep02.mkv", Size: 400_000_000},
		{Path: "Anime/ep03.mkv", Size: 400_000_000},
		{Path: "Anime/cover.jpg", Size: 1024},
	}
	re := canonicalAVRegex(t)
	want, err := Classify(base, re)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 20; trial++ {
		shuffled := make(category.Bag, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		got, err := Classify(shuffled, re)
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if got != want {
			t.Fatalf("permutation changed result: got %q, want %q", got, want)
		}
	}
}
