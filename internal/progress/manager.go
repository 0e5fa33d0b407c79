// Package progress renders a live bar for interactive conversion runs.
// Non-interactive runs (CI, piped output) skip it entirely in favor of
// the secure logger's per-pair INFO lines; see config.IsTUIEnabled.
package progress

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	styleBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Summary is the final tally reported once a run completes.
type Summary struct {
	Total     int
	Converted int64
	Failed    int64
	Elapsed   time.Duration
}

// Manager tracks pass/fail counts for a conversion run and, when
// attached to a terminal, redraws a one-line progress bar as pairs
// complete.
type Manager struct {
	total       int
	converted   int64
	failed      int64
	start       time.Time
	interactive bool

	mu           sync.Mutex
	shutdownChan chan struct{}
	active       int32
}

// NewManager creates a Manager for a run of total pairs. interactive
// selects whether a live bar is drawn; pass config.IsTUIEnabled().
func NewManager(total int, interactive bool) *Manager {
	return &Manager{
		total:        total,
		start:        time.Now(),
		interactive:  interactive,
		shutdownChan: make(chan struct{}),
	}
}

// Start begins the live-redraw loop. It is a no-op when interactive
// is false.
func (m *Manager) Start() {
	if !m.interactive {
		return
	}
	if !atomic.CompareAndSwapInt32(&m.active, 0, 1) {
		return
	}
	go m.loop()
}

// Stop halts the live-redraw loop and prints a trailing newline so the
// shell prompt does not overwrite the final bar.
func (m *Manager) Stop() Summary {
	if m.interactive && atomic.CompareAndSwapInt32(&m.active, 1, 0) {
		close(m.shutdownChan)
		fmt.Println()
	}
	return m.Summary()
}

// PairConverted records one successfully converted pair.
func (m *Manager) PairConverted(pk string) {
	atomic.AddInt64(&m.converted, 1)
}

// PairFailed records one pair that failed conversion.
func (m *Manager) PairFailed(pk, kind string) {
	atomic.AddInt64(&m.failed, 1)
}

// Summary returns the current pass/fail tally and elapsed time.
func (m *Manager) Summary() Summary {
	return Summary{
		Total:     m.total,
		Converted: atomic.LoadInt64(&m.converted),
		Failed:    atomic.LoadInt64(&m.failed),
		Elapsed:   time.Since(m.start),
	}
}

func (m *Manager) loop() {
	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.render()
		case <-m.shutdownChan:
			m.render()
			return
		}
	}
}

func (m *Manager) render() {
	m.mu.Lock()
	defer m.mu.Unlock()

	done := int(atomic.LoadInt64(&m.converted) + atomic.LoadInt64(&m.failed))
	pct := 0.0
	if m.total > 0 {
		pct = float64(done) / float64(m.total) * 100
	}

	const width = 30
	filled := int(pct / 100 * width)
	if filled > width {
		filled = width
	}
	bar := styleBar.Render(repeat("#", filled) + repeat("-", width-filled))

	fmt.Printf("\r\033[K[%s] %s%s %s %s",
		bar,
		styleOK.Render(fmt.Sprintf("%d ok", atomic.LoadInt64(&m.converted))),
		styleDim.Render(" / "),
		styleFail.Render(fmt.Sprintf("%d failed", atomic.LoadInt64(&m.failed))),
		styleDim.Render(fmt.Sprintf("(%d/%d)", done, m.total)),
	)
}

func repeat(s string, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
