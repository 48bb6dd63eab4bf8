package main

import (
	"testing"

	"github.com/opustools/zoog/internal/volumerewrite"
)

func TestParsePresetKnown(t *testing.T) {
	for _, name := range []string{"rg", "r128", "original", "no-change"} {
		if _, err := parsePreset(name); err != nil {
			t.Errorf("parsePreset(%q): %v", name, err)
		}
	}
}

func TestParsePresetUnknown(t *testing.T) {
	if _, err := parsePreset("bogus"); err == nil {
		t.Error("expected error for unrecognized preset")
	}
}

func TestParseOutputGainModeAutoFollowsAlbum(t *testing.T) {
	albumMode, err := parseOutputGainMode("auto", true)
	if err != nil {
		t.Fatalf("parseOutputGainMode: %v", err)
	}
	if albumMode != volumerewrite.Album {
		t.Errorf("auto+album = %v, want Album", albumMode)
	}

	trackMode, err := parseOutputGainMode("auto", false)
	if err != nil {
		t.Fatalf("parseOutputGainMode: %v", err)
	}
	if trackMode != volumerewrite.Track {
		t.Errorf("auto+!album = %v, want Track", trackMode)
	}
}

func TestParseOutputGainModeExplicitTrack(t *testing.T) {
	mode, err := parseOutputGainMode("track", true)
	if err != nil {
		t.Fatalf("parseOutputGainMode: %v", err)
	}
	if mode != volumerewrite.Track {
		t.Errorf("explicit track under album = %v, want Track", mode)
	}
}

func TestParseOutputGainModeUnknown(t *testing.T) {
	if _, err := parseOutputGainMode("bogus", false); err == nil {
		t.Error("expected error for unrecognized output-gain-mode")
	}
}
