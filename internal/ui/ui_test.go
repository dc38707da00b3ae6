package ui

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"soapmirror/internal/media"
)

func TestNumbered(t *testing.T) {
	got := numbered([]string{"a", "b\tc", "d\ne"})
	want := "0\ta\n1\tb c\n2\td e\n"
	if got != want {
		t.Errorf("numbered() = %q, want %q", got, want)
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		out     string
		n       int
		want    int
		wantErr error
	}{
		{"1\tsecond\n", 3, 1, nil},
		{"0\tfirst", 1, 0, nil},
		{"", 3, -1, ErrCancelled},
		{"7\tx", 3, -1, errors.New("range")},
		{"x\ty", 3, -1, errors.New("parse")},
	}
	for _, tt := range tests {
		got, err := parseSelection(tt.out, tt.n)
		if tt.wantErr != nil {
			if err == nil {
				t.Errorf("parseSelection(%q) = %d, want error", tt.out, got)
			}
			if errors.Is(tt.wantErr, ErrCancelled) && !errors.Is(err, ErrCancelled) {
				t.Errorf("parseSelection(%q) error = %v, want ErrCancelled", tt.out, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseSelection(%q) = %d, %v; want %d", tt.out, got, err, tt.want)
		}
	}
}

var sample = []media.Download{
	{Title: "Film 2020", Path: "media/m/Film.2020.mp4", State: media.DownloadRunning, Bytes: 512 * 1024, Total: 1024 * 1024},
	{Title: "Show S01E01", Path: "media/t/Show/S01E01.mp4", State: media.DownloadDone, Bytes: 2048},
	{Title: "Broken", Path: "media/m/Broken.mp4", State: media.DownloadFailed, Error: "unexpected status 404"},
}

func TestPrintDownloads(t *testing.T) {
	var buf bytes.Buffer
	PrintDownloads(&buf, sample)
	out := buf.String()
	for _, want := range []string{"running  Film 2020", "512 KiB / 1.0 MiB (50.0%)", "done     Show S01E01", "failed   Broken", "unexpected status 404"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	PrintDownloads(&buf, nil)
	if strings.TrimSpace(buf.String()) != "No downloads." {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestDownloadsFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/downloads" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id":"1","title":"Film","path":"media/m/Film.mp4","bytes":5,"total":10,"state":"running"}]`))
	}))
	defer srv.Close()

	items, err := DownloadsFetcher(srv.Client(), srv.URL+"/")(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Title != "Film" || items[0].Percent() != 0.5 {
		t.Errorf("items = %+v", items)
	}

	if _, err := DownloadsFetcher(srv.Client(), srv.URL+"/nope")(context.Background()); err == nil {
		t.Error("expected error for 404")
	}
}

func TestMonitorModel(t *testing.T) {
	fetches := 0
	fetch := func(context.Context) ([]media.Download, error) {
		fetches++
		return sample, nil
	}
	m := newMonitorModel(context.Background(), fetch)

	msg := m.Init()()
	if fetches != 1 {
		t.Fatalf("fetches = %d, want 1", fetches)
	}

	next, cmd := m.Update(msg)
	m = next.(monitorModel)
	if cmd == nil {
		t.Error("expected a tick after downloads arrive")
	}
	view := m.View()
	for _, want := range []string{"Film 2020", "Show S01E01", "failed: unexpected status 404", "q to quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	_, cmd = m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("tick should trigger a poll")
	}
	if _, ok := cmd().(downloadsMsg); !ok || fetches != 2 {
		t.Errorf("poll after tick: fetches = %d", fetches)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not produce QuitMsg")
	}
}

func TestMonitorModelError(t *testing.T) {
	m := newMonitorModel(context.Background(), nil)
	next, _ := m.Update(downloadsMsg{err: errors.New("connection refused")})
	if view := next.(monitorModel).View(); !strings.Contains(view, "connection refused") {
		t.Errorf("view does not show error:\n%s", view)
	}

	next, _ = m.Update(downloadsMsg{})
	if view := next.(monitorModel).View(); !strings.Contains(view, "No downloads yet.") {
		t.Errorf("empty view:\n%s", view)
	}
}

func TestBanner(t *testing.T) {
	if got := Banner("hello"); !strings.Contains(got, "hello") {
		t.Errorf("Banner() = %q", got)
	}
}
