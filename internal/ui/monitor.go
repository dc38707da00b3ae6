package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"soapmirror/internal/media"
)

// PollInterval is how often the monitor refreshes.
const PollInterval = time.Second

// FetchFunc returns the current downloads.
type FetchFunc func(ctx context.Context) ([]media.Download, error)

// DownloadsFetcher returns a FetchFunc reading GET <base>/downloads.
func DownloadsFetcher(client *http.Client, base string) FetchFunc {
	endpoint := strings.TrimRight(base, "/") + "/downloads"
	return func(ctx context.Context) ([]media.Download, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching downloads: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetching downloads: unexpected status %d", resp.StatusCode)
		}
		var out []media.Download
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, fmt.Errorf("decoding downloads: %w", err)
		}
		return out, nil
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#B22222")).Padding(0, 1)
	nameStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type downloadsMsg struct {
	items []media.Download
	err   error
}

type tickMsg time.Time

type monitorModel struct {
	ctx   context.Context
	fetch FetchFunc
	bar   progress.Model
	items []media.Download
	err   error
}

func newMonitorModel(ctx context.Context, fetch FetchFunc) monitorModel {
	return monitorModel{
		ctx:   ctx,
		fetch: fetch,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

func (m monitorModel) Init() tea.Cmd {
	return m.poll()
}

func (m monitorModel) poll() tea.Cmd {
	return func() tea.Msg {
		items, err := m.fetch(m.ctx)
		return downloadsMsg{items: items, err: err}
	}
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(60, msg.Width-30))
	case downloadsMsg:
		m.items, m.err = msg.items, msg.err
		return m, tea.Tick(PollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	case tickMsg:
		return m, m.poll()
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("soapmirror downloads"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case len(m.items) == 0:
		b.WriteString(dimStyle.Render("No downloads yet."))
		b.WriteString("\n")
	}

	for _, d := range m.items {
		b.WriteString(nameStyle.Render(d.Title))
		b.WriteString(" ")
		b.WriteString(dimStyle.Render(d.Path))
		b.WriteString("\n")
		switch d.State {
		case media.DownloadRunning:
			b.WriteString(m.bar.ViewAs(d.Percent()))
			b.WriteString("  ")
			b.WriteString(sizeLine(d))
		case media.DownloadDone:
			b.WriteString(doneStyle.Render("done") + "  " + humanize.IBytes(uint64(d.Bytes)))
		case media.DownloadFailed:
			b.WriteString(errStyle.Render("failed: " + d.Error))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(dimStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

// RunMonitor shows a live view of downloads until the user quits or ctx ends.
func RunMonitor(ctx context.Context, fetch FetchFunc) error {
	p := tea.NewProgram(newMonitorModel(ctx, fetch), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// PrintDownloads writes a plain-text listing, for non-interactive output.
func PrintDownloads(w io.Writer, items []media.Download) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No downloads.")
		return
	}
	for _, d := range items {
		line := fmt.Sprintf("%-8s %s (%s)", d.State, d.Title, d.Path)
		switch d.State {
		case media.DownloadRunning:
			line += " " + sizeLine(d)
		case media.DownloadFailed:
			line += " " + d.Error
		}
		fmt.Fprintln(w, line)
	}
}

func sizeLine(d media.Download) string {
	if d.Total <= 0 {
		return humanize.IBytes(uint64(d.Bytes))
	}
	return fmt.Sprintf("%s / %s (%.1f%%)", humanize.IBytes(uint64(d.Bytes)), humanize.IBytes(uint64(d.Total)), d.Percent()*100)
}
