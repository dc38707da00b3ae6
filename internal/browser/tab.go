package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"soapmirror/internal/redirector"
)

// Toastify assets loaded into every redirected page.
const (
	ToastifyScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/toastify-js/1.12.0/toastify.min.js"
	ToastifyStyleURL  = "https://cdnjs.cloudflare.com/ajax/libs/toastify-js/1.12.0/toastify.min.css"
)

// Class names used by the injected stylesheet.
const (
	BannerClass     = "SSDBANNER"
	BackgroundClass = "BLACKBG"
)

const customStyle = `.` + BannerClass + `{top:0!important;left:0!important}` +
	`.` + BackgroundClass + `{background:black!important;background-color:black!important;color:white;display:flex;justify-content:center;align-items:center}`

// Tab is a chromedp tab driven as a redirector.Page.
type Tab struct {
	ctx context.Context
}

var _ redirector.Page = (*Tab)(nil)

// Open navigates the tab to url and waits for the document.
func (t *Tab) Open(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Navigate(url))
}

// Setup makes the toast library and styles available in the current
// document and in every document the tab loads afterwards.
func (t *Tab) Setup(ctx context.Context) error {
	script := setupScript()
	return t.run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Evaluate(script, nil),
	)
}

// Location implements redirector.Page.
func (t *Tab) Location(ctx context.Context) (redirector.Location, error) {
	var loc struct {
		Host string `json:"host"`
		Path string `json:"path"`
	}
	err := t.run(ctx, chromedp.Evaluate(`({host: location.host, path: location.pathname})`, &loc))
	if err != nil {
		return redirector.Location{}, err
	}
	return redirector.Location{Host: loc.Host, Path: loc.Path}, nil
}

// HasElement implements redirector.Page.
func (t *Tab) HasElement(ctx context.Context, id string) (bool, error) {
	var found bool
	err := t.run(ctx, chromedp.Evaluate(fmt.Sprintf(`document.getElementById(%s) !== null`, jsString(id)), &found))
	return found, err
}

// TakeOver implements redirector.Page.
func (t *Tab) TakeOver(ctx context.Context) error {
	return t.run(ctx, chromedp.Evaluate(takeOverScript, nil))
}

// Navigate implements redirector.Page.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Evaluate(fmt.Sprintf(`location.href = %s`, jsString(url)), nil))
}

// Evaluate runs expr in the page, discarding the result.
func (t *Tab) Evaluate(ctx context.Context, expr string) error {
	return t.run(ctx, chromedp.Evaluate(expr, nil))
}

// run executes actions on the tab until either ctx or the tab ends.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

const takeOverScript = `(function(){
  document.body.classList.add("` + BackgroundClass + `");
  document.body.innerHTML = "<h1>Loading...</h1>";
})()`

func setupScript() string {
	return `(function(){
  function inject() {
    if (document.getElementById("soapmirror-toastify")) return;
    var root = document.head || document.documentElement;
    var s = document.createElement("script");
    s.id = "soapmirror-toastify";
    s.src = ` + jsString(ToastifyScriptURL) + `;
    root.appendChild(s);
    var l = document.createElement("link");
    l.rel = "stylesheet";
    l.href = ` + jsString(ToastifyStyleURL) + `;
    root.appendChild(l);
    var st = document.createElement("style");
    st.textContent = ` + jsString(customStyle) + `;
    root.appendChild(st);
  }
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", inject);
  } else {
    inject();
  }
})()`
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
