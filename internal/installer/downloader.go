package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"xcv/internal/outcome"
)

// Download fetches url into destPath. On a terminal it renders an animated
// progress bar; otherwise it copies quietly. The destination is written via a
// temp file so an aborted download leaves no half-written archive behind.
func Download(ctx context.Context, url, destPath string, interactive bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return outcome.IO(err, "fetching: building request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return outcome.IO(err, "fetching %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return outcome.IO(fmt.Errorf("status %d", resp.StatusCode), "fetching %s", url)
	}

	tmp := destPath + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return outcome.IO(err, "fetching: creating %s", tmp)
	}

	written, copyErr := copyBody(out, resp.Body, resp.ContentLength, interactive)
	closeErr := out.Close()

	if copyErr == nil && closeErr != nil {
		copyErr = closeErr
	}
	if copyErr == nil && resp.ContentLength > 0 && written != resp.ContentLength {
		copyErr = fmt.Errorf("incomplete download: got %d bytes, expected %d", written, resp.ContentLength)
	}
	if copyErr != nil {
		os.Remove(tmp)
		return outcome.IO(copyErr, "fetching %s", url)
	}

	if err := os.Rename(tmp, destPath); err != nil {
		os.Remove(tmp)
		return outcome.IO(err, "fetching: saving %s", destPath)
	}

	return nil
}

func copyBody(out io.Writer, body io.Reader, total int64, interactive bool) (int64, error) {
	if !interactive || total <= 0 {
		return io.Copy(out, body)
	}

	p := tea.NewProgram(newProgressModel(total))
	pw := newProgressWriter(total, p)

	// Run the progress UI alongside the copy.
	go func() {
		if _, err := p.Run(); err != nil {
			fmt.Printf("Error running progress: %v\n", err)
		}
	}()
	time.Sleep(100 * time.Millisecond) // give the UI time to start

	written, err := io.Copy(io.MultiWriter(out, pw), body)
	if err != nil {
		p.Send(progressErrMsg{err: err})
		p.Quit()
		return written, err
	}

	p.Send(downloadCompleteMsg{})
	time.Sleep(200 * time.Millisecond) // let the UI finish its last frame

	return written, nil
}
