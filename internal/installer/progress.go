package installer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"xcv/internal/theme"
)

const padding = 2

type progressMsg struct {
	percent    float64
	downloaded int64
	speed      string
}

type progressErrMsg struct{ err error }

type downloadCompleteMsg struct{}

// FormatSize formats bytes in human-readable format
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// progressModel renders the download progress bar.
type progressModel struct {
	progress   progress.Model
	totalBytes int64
	downloaded int64
	speed      string
	err        error
	done       bool
}

func newProgressModel(totalBytes int64) progressModel {
	prog := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return progressModel{
		progress:   prog,
		totalBytes: totalBytes,
		speed:      "0 B/s",
	}
}

func (m progressModel) Init() tea.Cmd {
	return nil
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case progressMsg:
		if m.done {
			return m, tea.Quit
		}

		m.downloaded = msg.downloaded
		m.speed = msg.speed

		cmd := m.progress.SetPercent(msg.percent)
		if msg.percent >= 1.0 {
			m.done = true
			return m, tea.Sequence(cmd, tea.Quit)
		}
		return m, cmd

	case downloadCompleteMsg:
		m.done = true
		return m, tea.Quit

	case progressErrMsg:
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	default:
		return m, nil
	}
}

func (m progressModel) View() string {
	if m.err != nil {
		return "Error downloading: " + m.err.Error() + "\n"
	}

	if m.done {
		return ""
	}

	pad := strings.Repeat(" ", padding)

	info := fmt.Sprintf("%s / %s (%.0f%%) - %s",
		FormatSize(m.downloaded), FormatSize(m.totalBytes), m.progress.Percent()*100, m.speed)

	return "\n" +
		pad + m.progress.View() + "\n" +
		pad + theme.Faint.Render(info) + "\n"
}

// progressWriter is an io.Writer that sends progress updates to Bubble Tea
type progressWriter struct {
	total      int64
	downloaded int64
	startTime  time.Time
	program    *tea.Program
}

func newProgressWriter(total int64, program *tea.Program) *progressWriter {
	return &progressWriter{
		total:     total,
		startTime: time.Now(),
		program:   program,
	}
}

func (pw *progressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.downloaded += int64(n)

	if pw.total > 0 && pw.program != nil {
		pw.program.Send(progressMsg{
			percent:    float64(pw.downloaded) / float64(pw.total),
			downloaded: pw.downloaded,
			speed:      pw.formatSpeed(),
		})
	}

	return n, nil
}

func (pw *progressWriter) formatSpeed() string {
	elapsed := time.Since(pw.startTime).Seconds()
	if elapsed <= 0 {
		return "0 B/s"
	}
	return FormatSize(int64(float64(pw.downloaded)/elapsed)) + "/s"
}
