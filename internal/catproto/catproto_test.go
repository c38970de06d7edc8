package catproto

import (
	"bytes"
	"testing"

	"seedcurator/internal/category"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bag := category.Bag{
		{Path: "Show/Show.S01E01.mkv", Size: 123456},
		{Path: "Show/Show.S01E02.mkv", Size: 654321},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, bag); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var diag bytes.Buffer
	got, err := Decode(&buf, &diag)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(bag) {
		t.Fatalf("got %d records, want %d", len(got), len(bag))
	}
	for i := range bag {
		if got[i] != bag[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], bag[i])
		}
	}
	if diag.Len() != 0 {
		t.Errorf("unexpected diagnostic output: %s", diag.String())
	}
}

func TestDecodeDropsMalformedSize(t *testing.T) {
	raw := []byte("good/path\x00123\x00bad/path\x00notanumber\x00")
	var diag bytes.Buffer
	got, err := Decode(bytes.NewReader(raw), &diag)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != 1 || got[0].Path != "good/path" || got[0].Size != 123 {
		t.Errorf("got %+v, want a single record for good/path", got)
	}
	if diag.Len() == 0 {
		t.Error("expected a diagnostic for the malformed record")
	}
}

func TestParseCategory(t *testing.T) {
	if _, err := ParseCategory("film"); err != nil {
		t.Errorf("ParseCategory(film) unexpected error: %v", err)
	}
	if _, err := ParseCategory("bogus"); err == nil {
		t.Error("ParseCategory(bogus) expected an error")
	}
}
