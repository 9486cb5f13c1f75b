// Package display is a headless video sink: it counts presented frames and
// logs video mode changes reported by the core.
package display

import (
	"log"
	"sync"
	"time"

	"github.com/meadori/vibe64/vi"
)

// Display implements plugin.Video.
type Display struct {
	// Registers, if set, reads a VI register. It is called from within the
	// core's callbacks, so it must not take the machine lock.
	Registers func(reg int) uint32

	// Report is how often the frame rate is logged. Zero disables it.
	Report time.Duration

	mu         sync.Mutex
	frames     uint64
	changes    int
	now        func() time.Time
	last       time.Time
	lastFrames uint64
	fps        float64
}

// New creates a display that logs its frame rate every report.
func New(report time.Duration) *Display {
	return &Display{Report: report, now: time.Now}
}

func (d *Display) register(reg int) (uint32, bool) {
	if d.Registers == nil {
		return 0, false
	}
	return d.Registers(reg), true
}

func (d *Display) StatusChanged() {
	d.mu.Lock()
	d.changes++
	d.mu.Unlock()

	if v, ok := d.register(vi.Status); ok {
		log.Printf("display: VI status %#08x", v)
	}
}

func (d *Display) WidthChanged() {
	d.mu.Lock()
	d.changes++
	d.mu.Unlock()

	if v, ok := d.register(vi.Width); ok {
		log.Printf("display: VI width %d", v)
	}
}

func (d *Display) UpdateScreen() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames++
	if d.Report == 0 {
		return
	}
	now := d.now()
	if d.last.IsZero() {
		d.last, d.lastFrames = now, d.frames
		return
	}
	if elapsed := now.Sub(d.last); elapsed >= d.Report {
		d.fps = float64(d.frames-d.lastFrames) / elapsed.Seconds()
		d.last, d.lastFrames = now, d.frames
		log.Printf("display: %.1f fps", d.fps)
	}
}

// Frames returns the number of frames presented so far.
func (d *Display) Frames() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// ModeChanges returns how many status or width changes were reported.
func (d *Display) ModeChanges() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.changes
}

// FPS returns the frame rate measured at the last report.
func (d *Display) FPS() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}
