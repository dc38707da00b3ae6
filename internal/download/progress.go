package download

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// progressInterval spaces out progress log lines for one download.
const progressInterval = 2 * time.Second

// speedSmoothing weights the previous speed sample in the moving average.
const speedSmoothing = 0.25

const headSize = 64

// progressWriter counts bytes into the job and logs progress now and then.
type progressWriter struct {
	w      io.Writer
	job    *job
	logger *slog.Logger
	every  rate.Sometimes

	first     []byte
	lastBytes int64
	lastAt    time.Time
	speed     float64 // bytes per second, smoothed
}

func newProgressWriter(w io.Writer, j *job, logger *slog.Logger) *progressWriter {
	return &progressWriter{
		w:      w,
		job:    j,
		logger: logger,
		every:  rate.Sometimes{Interval: progressInterval},
		lastAt: time.Now(),
	}
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if len(p.first) < headSize {
		need := headSize - len(p.first)
		if need > n {
			need = n
		}
		p.first = append(p.first, b[:need]...)
	}
	p.job.bytes.Add(int64(n))
	p.every.Do(p.report)
	return n, err
}

func (p *progressWriter) head() []byte { return p.first }

func (p *progressWriter) report() {
	now := time.Now()
	size := p.job.bytes.Load()
	total := p.job.total.Load()

	if dt := now.Sub(p.lastAt).Seconds(); dt > 0 && size > p.lastBytes {
		instant := float64(size-p.lastBytes) / dt
		if p.speed == 0 {
			p.speed = instant
		} else {
			p.speed = speedSmoothing*p.speed + (1-speedSmoothing)*instant
		}
	}
	p.lastBytes = size
	p.lastAt = now

	attrs := []any{
		"title", p.job.plan.Title,
		"size", humanize.IBytes(uint64(size)),
		"speed", humanize.IBytes(uint64(p.speed)) + "/s",
	}
	if total > 0 {
		attrs = append(attrs,
			"total", humanize.IBytes(uint64(total)),
			"percent", fmt.Sprintf("%.2f%%", float64(size)/float64(total)*100),
			"remaining", formatETA(total-size, p.speed),
		)
	}
	p.logger.Info("downloading", attrs...)
}

// formatETA renders the time left as "12m 5s", or "∞" when it can't be known.
func formatETA(remaining int64, speed float64) string {
	if speed <= 0 || remaining < 0 {
		return "∞"
	}
	secs := int64(float64(remaining) / speed)
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}
