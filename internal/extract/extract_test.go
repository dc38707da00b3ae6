package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFromHTML(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		base    string
		want    string
		wantErr bool
	}{
		{
			name: "jw player video",
			html: `<div class="jw-wrapper"><video class="jw-video jw-reset" src="https://cdn.example.com/m/Film.mp4"></video></div>`,
			base: "https://soap2day.mx/movie/1",
			want: "https://cdn.example.com/m/Film.mp4",
		},
		{
			name: "relative source resolved",
			html: `<video class="jw-video" src="/media/t/Show/S01E01.mp4"></video>`,
			base: "https://soap2day.mx/tv/1",
			want: "https://soap2day.mx/media/t/Show/S01E01.mp4",
		},
		{
			name: "plain video element",
			html: `<video src="clip.mp4"></video>`,
			base: "https://example.com/a/b",
			want: "https://example.com/a/clip.mp4",
		},
		{
			name: "source child",
			html: `<video><source src="https://cdn.example.com/x.m3u8" type="application/x-mpegURL"></video>`,
			base: "https://example.com/",
			want: "https://cdn.example.com/x.m3u8",
		},
		{
			name:    "blob source is not downloadable",
			html:    `<video class="jw-video" src="blob:https://soap2day.mx/1234"></video>`,
			base:    "https://soap2day.mx/",
			wantErr: true,
		},
		{
			name:    "no video",
			html:    `<div id="divPlayerSelect"><button class="btn-success">Play</button></div>`,
			base:    "https://soap2day.mx/",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromHTML(strings.NewReader(tt.html), tt.base)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("FromHTML() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromHTML() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FromHTML() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStaticExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie":
			w.Write([]byte(`<html><body><video class="jw-video" src="/files/movie.mp4"></video></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewStatic(srv.Client())

	got, err := s.Extract(context.Background(), srv.URL+"/movie")
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if want := srv.URL + "/files/movie.mp4"; got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}

	if _, err := s.Extract(context.Background(), srv.URL+"/missing"); err == nil {
		t.Error("expected error for 404 page")
	}
}

type extractorFunc func(ctx context.Context, pageURL string) (string, error)

func (f extractorFunc) Extract(ctx context.Context, pageURL string) (string, error) {
	return f(ctx, pageURL)
}

func TestChain(t *testing.T) {
	failing := extractorFunc(func(context.Context, string) (string, error) {
		return "", errors.New("first failed")
	})
	empty := extractorFunc(func(context.Context, string) (string, error) { return "", nil })
	ok := extractorFunc(func(_ context.Context, p string) (string, error) { return p + "/video.mp4", nil })

	got, err := Chain{failing, empty, ok}.Extract(context.Background(), "https://x")
	if err != nil {
		t.Fatalf("Chain.Extract() error: %v", err)
	}
	if got != "https://x/video.mp4" {
		t.Errorf("Chain.Extract() = %q", got)
	}

	_, err = Chain{failing, empty}.Extract(context.Background(), "https://x")
	if !errors.Is(err, ErrNoVideo) {
		t.Fatalf("expected ErrNoVideo, got %v", err)
	}
	if !strings.Contains(err.Error(), "first failed") {
		t.Errorf("error %q should carry underlying failure", err)
	}

	if _, err := (Chain{}).Extract(context.Background(), "https://x"); !errors.Is(err, ErrNoVideo) {
		t.Errorf("empty chain: got %v", err)
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	first := extractorFunc(func(context.Context, string) (string, error) {
		calls++
		cancel()
		return "", context.Canceled
	})
	second := extractorFunc(func(context.Context, string) (string, error) {
		calls++
		return "u", nil
	})

	_, err := Chain{first, second}.Extract(ctx, "https://x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPlayerTasks(t *testing.T) {
	var src string
	var ok bool
	if n := len(playerTasks("https://soap2day.mx/x", &src, &ok)); n != 5 {
		t.Errorf("playerTasks() has %d actions, want 5", n)
	}
}
