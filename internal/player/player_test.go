package player

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mpv", "mpv"},
		{"vlc", "vlc"},
		{"iina", "iina"},
		{"celluloid", "celluloid"},
		{"VLC", "vlc"},
		{" Celluloid ", "celluloid"},
		{"unknown", "mpv"},
	}
	for _, tt := range tests {
		if got := New(tt.name).Name(); got != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestMPVArgs(t *testing.T) {
	args := mpvArgs(Media{Source: "/videos/m/Film.mp4", Title: "Film", Start: 61.4}, "/tmp/sock")
	for _, want := range []string{"/videos/m/Film.mp4", "--force-media-title=Film", "--input-ipc-server=/tmp/sock", "--start=+61"} {
		if !slices.Contains(args, want) {
			t.Errorf("mpv args %v missing %q", args, want)
		}
	}

	args = mpvArgs(Media{Source: "x"}, "/tmp/sock")
	for _, a := range args {
		if strings.HasPrefix(a, "--start") {
			t.Errorf("unexpected start arg %q", a)
		}
	}
}

func TestVLCArgs(t *testing.T) {
	args := vlcArgs(Media{Source: "f.mp4", Title: "T", Start: 10})
	want := []string{"f.mp4", "--meta-title", "T", "--play-and-exit", "--start-time=10"}
	if !slices.Equal(args, want) {
		t.Errorf("vlcArgs() = %v, want %v", args, want)
	}
}

func TestObserveAndReadPositions(t *testing.T) {
	var buf bytes.Buffer
	if err := observeTimePos(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"observe_property"`) || !strings.HasSuffix(buf.String(), "\n") {
		t.Errorf("observe command = %q", buf.String())
	}

	events := strings.Join([]string{
		`{"request_id":100,"error":"success"}`,
		`{"event":"property-change","id":1,"name":"time-pos","data":1.5}`,
		`not json`,
		`{"event":"property-change","id":1,"name":"time-pos","data":93.25}`,
		`{"event":"property-change","id":1,"name":"time-pos","data":null}`,
		`{"event":"end-file"}`,
	}, "\n")
	if got := readPositions(strings.NewReader(events)); got != 93.25 {
		t.Errorf("readPositions() = %v, want 93.25", got)
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{65, "1:05"},
		{3725.9, "1:02:05"},
	}
	for _, tt := range tests {
		if got := FormatPosition(tt.in); got != tt.want {
			t.Errorf("FormatPosition(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"90", 90, false},
		{"1:30", 90, false},
		{"1:02:05", 3725, false},
		{"1:2:3:4", 0, true},
		{"abc", 0, true},
		{"-5", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePosition(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePosition(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePosition(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

type fakePlayer struct {
	got Media
	pos float64
	err error
}

func (f *fakePlayer) Play(_ context.Context, m Media) (float64, error) {
	f.got = m
	return f.pos, f.err
}
func (f *fakePlayer) Name() string    { return "fake" }
func (f *fakePlayer) Available() bool { return true }

type memPositions map[string]float64

func (m memPositions) Position(_ context.Context, p string) (float64, error) { return m[p], nil }
func (m memPositions) SetPosition(_ context.Context, p string, s float64) error {
	m[p] = s
	return nil
}

func TestResume(t *testing.T) {
	ctx := context.Background()
	store := memPositions{"media/m/Film.mp4": 120}
	p := &fakePlayer{pos: 300}

	pos, err := Resume(ctx, p, store, "media/m/Film.mp4", "/lib/m/Film.mp4", "Film", -1)
	if err != nil {
		t.Fatal(err)
	}
	if p.got.Start != 120 || p.got.Source != "/lib/m/Film.mp4" || p.got.Title != "Film" {
		t.Errorf("player got %+v", p.got)
	}
	if pos != 300 || store["media/m/Film.mp4"] != 300 {
		t.Errorf("pos = %v, stored = %v", pos, store["media/m/Film.mp4"])
	}

	// explicit start wins; unreported position leaves the store alone
	p = &fakePlayer{}
	if _, err := Resume(ctx, p, store, "media/m/Film.mp4", "/lib/m/Film.mp4", "Film", 5); err != nil {
		t.Fatal(err)
	}
	if p.got.Start != 5 || store["media/m/Film.mp4"] != 300 {
		t.Errorf("start = %v, stored = %v", p.got.Start, store["media/m/Film.mp4"])
	}

	p = &fakePlayer{err: errors.New("boom")}
	if _, err := Resume(ctx, p, store, "media/m/Film.mp4", "f", "t", 0); err == nil {
		t.Error("expected player error")
	}
}
