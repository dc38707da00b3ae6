package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// MPV implements the Player interface for mpv.
// Playback position is tracked over IPC via a Unix socket at a randomized temp path.
type MPV struct{}

func (m *MPV) Name() string { return "mpv" }

func (m *MPV) Available() bool {
	_, err := exec.LookPath("mpv")
	return err == nil
}

// Play launches mpv and returns the final playback position.
func (m *MPV) Play(ctx context.Context, media Media) (float64, error) {
	// randomized socket dir prevents symlink attacks
	socketDir, err := os.MkdirTemp("", "soapmirror-mpv-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp dir for mpv socket: %w", err)
	}
	defer os.RemoveAll(socketDir)

	socketPath := filepath.Join(socketDir, "socket")

	cmd := exec.CommandContext(ctx, "mpv", mpvArgs(media, socketPath)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting mpv: %w", err)
	}

	posCh := make(chan float64, 1)
	go func() {
		posCh <- trackPosition(socketPath)
	}()

	waitErr := cmd.Wait()
	// the socket closes when mpv exits, ending the tracker
	pos := <-posCh

	if waitErr != nil {
		var exitErr *exec.ExitError
		// mpv returns non-zero on user quit, which is normal
		if !errors.As(waitErr, &exitErr) {
			return pos, fmt.Errorf("running mpv: %w", waitErr)
		}
	}
	return pos, nil
}

func mpvArgs(media Media, socketPath string) []string {
	args := []string{
		media.Source,
		"--force-media-title=" + media.Title,
		"--input-ipc-server=" + socketPath,
		"--really-quiet",
	}
	if media.Start > 0 {
		args = append(args, fmt.Sprintf("--start=+%.0f", media.Start))
	}
	return args
}

// trackPosition observes mpv's time-pos over IPC until the socket closes.
func trackPosition(socketPath string) float64 {
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return 0
	}
	defer conn.Close()

	if err := observeTimePos(conn); err != nil {
		return 0
	}
	return readPositions(conn)
}

func observeTimePos(w io.Writer) error {
	data, err := json.Marshal(map[string]any{
		"command":    []any{"observe_property", 1, "time-pos"},
		"request_id": 100,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// readPositions consumes mpv IPC events and returns the last time-pos seen.
func readPositions(r io.Reader) float64 {
	var lastPos float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var event struct {
			Event string  `json:"event"`
			Name  string  `json:"name"`
			Data  float64 `json:"data"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Name == "time-pos" && event.Data > 0 {
			lastPos = event.Data
		}
	}
	return lastPos
}
