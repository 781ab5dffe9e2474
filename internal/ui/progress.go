package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProgressBar tracks a counted operation such as a batched warehouse load
type ProgressBar struct {
	mu        sync.Mutex
	label     string
	total     int
	current   int
	startTime time.Time
	live      bool
}

// NewProgressBar creates a progress bar. On a non-terminal output only the
// final line is printed.
func NewProgressBar(label string, total int) *ProgressBar {
	return &ProgressBar{
		label:     label,
		total:     total,
		startTime: time.Now(),
		live:      supportsColor,
	}
}

// Update sets the number of completed units
func (p *ProgressBar) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current > p.total {
		current = p.total
	}
	p.current = current
	if p.live {
		p.render()
	}
}

// Finish prints the summary line
func (p *ProgressBar) Finish(success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w := out()
	if p.live {
		fmt.Fprint(w, "\r\033[K")
	}

	mark := ColorSuccess("✓")
	if !success {
		mark = ColorError("✗")
	}
	fmt.Fprintf(w, "%s %s %d/%d in %s\n", mark, p.label, p.current, p.total, formatDuration(time.Since(p.startTime)))
}

// Percent returns completion in the range 0..100
func (p *ProgressBar) Percent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total == 0 {
		return 100
	}
	return float64(p.current) / float64(p.total) * 100
}

func (p *ProgressBar) render() {
	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100
	}

	barWidth := 30
	filled := int(percentage / 100 * float64(barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	fmt.Fprintf(out(), "\r\033[K%s %s %s %.0f%% [%d/%d] %s",
		ColorProgress("►"),
		p.label,
		bar,
		percentage,
		p.current,
		p.total,
		formatDuration(time.Since(p.startTime)),
	)
}

// Spinner animates while a report is being built
type Spinner struct {
	frames  []string
	current int
	message string
	stop    chan struct{}
	done    chan struct{}
	live    bool
	mu      sync.Mutex
}

func NewSpinner(message string) *Spinner {
	return &Spinner{
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		live:    supportsColor,
	}
}

// Start begins the animation; it is a no-op on a non-terminal output
func (s *Spinner) Start() {
	if !s.live {
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(out(), "\r\033[K%s %s", ColorProgress(s.frames[s.current]), s.message)
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and clears the line
func (s *Spinner) Stop() {
	close(s.stop)
	<-s.done
	if s.live {
		fmt.Fprint(out(), "\r\033[K")
	}
}

// UpdateMessage updates the spinner message
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
