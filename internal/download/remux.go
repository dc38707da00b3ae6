package download

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// remux fetches an HLS playlist into a single MP4 file with ffmpeg.
// Streams are copied, not re-encoded. Arguments are an explicit slice; no shell.
func remux(ctx context.Context, src, outputPath, title string, log io.Writer) error {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	args := []string{
		"-y",
		"-loglevel", "error",
		"-user_agent", userAgent,
		"-i", src,
		"-c:v", "copy",
		"-c:a", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-metadata", fmt.Sprintf("title=%s", title),
		"-f", "mp4", // output name ends in .partial, so the muxer can't be guessed
		outputPath,
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	cmd.Stdout = log
	cmd.Stderr = log

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg remux failed: %w", err)
	}
	return nil
}
