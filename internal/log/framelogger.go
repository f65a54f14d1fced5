package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// FrameLogger records raw session traffic, one line per frame or event batch.
type FrameLogger interface {
	Log(in bool, data []byte)
}

type frameLogger struct {
	w   io.Writer
	mu  sync.Mutex
	now func() time.Time
}

// NewFrame creates a FrameLogger. A nil writer yields a no-op logger.
func NewFrame(w io.Writer) FrameLogger {
	return &frameLogger{w: w, now: time.Now}
}

// Log writes a single timestamped line. in=true means host->tracker (a
// frame), in=false means tracker->host (events or commands). Trailing
// newlines in data are dropped so every record stays on one line.
func (r *frameLogger) Log(in bool, data []byte) {
	for len(data) > 0 && (data[len(data)-1] == '\n' || data[len(data)-1] == '\r') {
		data = data[:len(data)-1]
	}
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "T->H"
	if in {
		dir = "H->T"
	}

	line := fmt.Sprintf("%s %s %d bytes: %s\n",
		r.now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		data)

	r.mu.Lock()
	_, _ = io.WriteString(r.w, line)
	r.mu.Unlock()
}
