package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"soapmirror/internal/redirector"
)

// ToastOptions is the Toastify configuration object.
type ToastOptions struct {
	Text      string     `json:"text"`
	Duration  int        `json:"duration"`
	NewWindow bool       `json:"newWindow"`
	Close     bool       `json:"close"`
	ClassName string     `json:"className"`
	Style     ToastStyle `json:"style"`
}

// ToastStyle is the inline style applied to the toast element.
type ToastStyle struct {
	Background string `json:"background"`
	Color      string `json:"color"`
	Position   string `json:"position"`
	Width      string `json:"width"`
	TextAlign  string `json:"textAlign"`
	ZIndex     int    `json:"zIndex"`
}

// BannerOptions returns the options for a full-width banner toast that stays
// until the page goes away.
func BannerOptions(text string) ToastOptions {
	return ToastOptions{
		Text:      text,
		Duration:  -1,
		NewWindow: true,
		Close:     false,
		ClassName: BannerClass,
		Style: ToastStyle{
			Background: "firebrick",
			Color:      "white",
			Position:   "fixed",
			Width:      "100%",
			TextAlign:  "center",
			ZIndex:     9999999,
		},
	}
}

// ToastScript returns the JavaScript that shows a banner toast for text.
func ToastScript(text string) (string, error) {
	opts, err := json.Marshal(BannerOptions(text))
	if err != nil {
		return "", fmt.Errorf("encoding toast options: %w", err)
	}
	return fmt.Sprintf(`(function(){
  if (typeof window.Toastify !== "function") throw new Error("Toastify is not loaded");
  window.Toastify(%s).showToast();
})()`, opts), nil
}

// Evaluator runs JavaScript in a page.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string) error
}

// Toast shows redirector messages as Toastify banners inside a page.
type Toast struct {
	page Evaluator
}

var _ redirector.Notifier = (*Toast)(nil)

// NewToast creates a Toast rendering into page.
func NewToast(page Evaluator) *Toast {
	return &Toast{page: page}
}

// Show implements redirector.Notifier.
func (t *Toast) Show(ctx context.Context, text string) error {
	script, err := ToastScript(text)
	if err != nil {
		return err
	}
	if err := t.page.Evaluate(ctx, script); err != nil {
		return fmt.Errorf("showing toast: %w", err)
	}
	return nil
}
