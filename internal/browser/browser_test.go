package browser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestBannerOptions(t *testing.T) {
	opts := BannerOptions("hello")
	b, err := json.Marshal(opts)
	if err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	checks := map[string]any{
		"text":      "hello",
		"duration":  float64(-1),
		"newWindow": true,
		"close":     false,
		"className": "SSDBANNER",
	}
	for k, want := range checks {
		if got[k] != want {
			t.Errorf("%s = %v, want %v", k, got[k], want)
		}
	}

	style, ok := got["style"].(map[string]any)
	if !ok {
		t.Fatalf("style missing: %v", got)
	}
	styleChecks := map[string]any{
		"background": "firebrick",
		"color":      "white",
		"position":   "fixed",
		"width":      "100%",
		"textAlign":  "center",
		"zIndex":     float64(9999999),
	}
	for k, want := range styleChecks {
		if style[k] != want {
			t.Errorf("style.%s = %v, want %v", k, style[k], want)
		}
	}
}

func TestToastScriptEscapesText(t *testing.T) {
	text := `"); alert("pwned`
	script, err := ToastScript(text)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(script, `"); alert("pwned`) {
		t.Errorf("text was spliced into script unescaped:\n%s", script)
	}
	if !strings.Contains(script, `window.Toastify(`) || !strings.Contains(script, `.showToast()`) {
		t.Errorf("script does not call Toastify:\n%s", script)
	}
}

type recordingEvaluator struct {
	exprs []string
	err   error
}

func (r *recordingEvaluator) Evaluate(_ context.Context, expr string) error {
	r.exprs = append(r.exprs, expr)
	return r.err
}

func TestToastShow(t *testing.T) {
	ev := &recordingEvaluator{}
	if err := NewToast(ev).Show(context.Background(), "Failed to connect"); err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	if len(ev.exprs) != 1 || !strings.Contains(ev.exprs[0], `"text":"Failed to connect"`) {
		t.Errorf("evaluated %q", ev.exprs)
	}

	ev.err = errors.New("tab closed")
	if err := NewToast(ev).Show(context.Background(), "x"); err == nil {
		t.Error("expected error from evaluator")
	}
}

func TestJSString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"divPlayerSelect", `"divPlayerSelect"`},
		{`a"b`, `"a\"b"`},
		{"</script>", `"\u003c/script\u003e"`},
	}
	for _, tt := range tests {
		if got := jsString(tt.in); got != tt.want {
			t.Errorf("jsString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSetupScriptReferencesAssets(t *testing.T) {
	s := setupScript()
	for _, want := range []string{ToastifyScriptURL, ToastifyStyleURL, ".SSDBANNER{top:0!important;left:0!important}", ".BLACKBG{"} {
		if !strings.Contains(s, want) {
			t.Errorf("setup script missing %q", want)
		}
	}
}

func TestStaticPage(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		switch r.URL.Path {
		case "/movie/Film":
			w.Write([]byte(`<html><body><div id="divPlayerSelect"></div></body></html>`))
		case "/home":
			w.Write([]byte(`<html><body><div id="other"></div></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	p, err := NewStaticPage(srv.URL+"/movie/Film", srv.Client())
	if err != nil {
		t.Fatal(err)
	}

	loc, err := p.Location(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loc.Path != "/movie/Film" || !strings.HasPrefix(srv.URL, "http://"+loc.Host) {
		t.Errorf("Location() = %+v", loc)
	}

	for range 2 {
		ok, err := p.HasElement(ctx, "divPlayerSelect")
		if err != nil {
			t.Fatalf("HasElement() error: %v", err)
		}
		if !ok {
			t.Error("HasElement() = false, want true")
		}
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("page fetched %d times, want 1", n)
	}

	if err := p.TakeOver(ctx); err != nil {
		t.Errorf("TakeOver() error: %v", err)
	}
	if err := p.Navigate(ctx, "http://localhost:8918/GetVideo?p=x"); err != nil {
		t.Fatal(err)
	}
	if p.Target() != "http://localhost:8918/GetVideo?p=x" {
		t.Errorf("Target() = %q", p.Target())
	}

	home, _ := NewStaticPage(srv.URL+"/home", srv.Client())
	if ok, err := home.HasElement(ctx, "divPlayerSelect"); err != nil || ok {
		t.Errorf("HasElement() on home = %v, %v", ok, err)
	}

	missing, _ := NewStaticPage(srv.URL+"/gone", srv.Client())
	if _, err := missing.HasElement(ctx, "divPlayerSelect"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestNewStaticPageRejectsBadURL(t *testing.T) {
	if _, err := NewStaticPage("ftp://example.com", nil); err == nil {
		t.Error("expected error for ftp URL")
	}
}
