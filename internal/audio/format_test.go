package audio

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"clip.mp3", FormatMP3, false},
		{"Song.FLAC", FormatFLAC, false},
		{"meeting.recording.M4A", FormatM4A, false},
		{"voice.wav", FormatWAV, false},
		{"take.aiff", FormatAIFF, false},
		{"file.xyz", "", true},
		{"noextension", "", true},
		{"trailingdot.", "", true},
		{"archive.wav.zip", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Classify(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected format %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSupportedFormatsOrder(t *testing.T) {
	want := []Format{"mp3", "mp4", "wav", "flac", "aac", "ogg", "wma", "m4a", "aiff"}

	got := SupportedFormats()
	if len(got) != len(want) {
		t.Fatalf("Expected %d formats, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], got[i])
		}
	}

	// Mutating the returned slice must not leak into the package set
	got[0] = "xyz"
	if SupportedFormats()[0] != FormatMP3 {
		t.Error("SupportedFormats returned shared backing array")
	}
}

func TestCanonicalFormat(t *testing.T) {
	if !FormatWAV.IsCanonical() {
		t.Error("Expected wav to be canonical")
	}
	if FormatMP3.IsCanonical() {
		t.Error("Expected mp3 not to be canonical")
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"clip.mp3":       "clip",
		"a.b.c.wav":      "a.b.c",
		"noextension":    "noextension",
		"voice note.ogg": "voice note",
	}

	for in, want := range tests {
		if got := BaseName(in); got != want {
			t.Errorf("BaseName(%q): expected %q, got %q", in, want, got)
		}
	}
}
