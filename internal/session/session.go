// Package session drives a tracker from host frames in their JSON wire form
// and turns the resulting events and haptic requests back into wire types.
// The API stream route, the replay command and the feed all go through it.
package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/tracker"
)

// MaxFrameSize bounds a single JSON frame line.
const MaxFrameSize = 1 << 20

// Publisher receives every non-empty event batch after a frame is applied.
type Publisher interface {
	Publish(events []apitypes.Event)
}

// Options configures a Session.
type Options struct {
	Logger    *slog.Logger
	Frames    log.FrameLogger
	Publisher Publisher
}

// Session applies frames one at a time.
type Session struct {
	tr        *tracker.Tracker
	logger    *slog.Logger
	frames    log.FrameLogger
	publisher Publisher

	mu  sync.Mutex
	seq uint64
}

// New creates a Session around tr.
func New(tr *tracker.Tracker, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Frames == nil {
		opts.Frames = log.NewFrame(nil)
	}
	return &Session{tr: tr, logger: opts.Logger, frames: opts.Frames, publisher: opts.Publisher}
}

// Tracker returns the driven tracker.
func (s *Session) Tracker() *tracker.Tracker { return s.tr }

type pulseRecorder struct {
	slot, actuator int
	out            *[]apitypes.HapticPulse
}

func (p *pulseRecorder) Pulse(intensity float64, d time.Duration) error {
	*p.out = append(*p.out, apitypes.HapticPulse{
		Slot:       p.slot,
		Actuator:   p.actuator,
		Intensity:  intensity,
		DurationMs: d.Milliseconds(),
	})
	return nil
}

// Apply runs one frame through the tracker. Only a malformed envelope
// (head pose, standing matrix) is an error; the tracker state is untouched
// in that case.
func (s *Session) Apply(f apitypes.Frame) (apitypes.FrameResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pulses := []apitypes.HapticPulse{}
	frame, err := FrameFromWire(f, func(slot, actuator int) controller.HapticActuator {
		return &pulseRecorder{slot: slot, actuator: actuator, out: &pulses}
	})
	if err != nil {
		return apitypes.FrameResult{}, err
	}

	events := EventsToWire(s.tr.Scan(frame))
	s.seq++
	res := apitypes.FrameResult{Seq: s.seq, Events: events, Haptics: pulses}

	if s.publisher != nil && len(events) > 0 {
		s.publisher.Publish(events)
	}
	return res, nil
}

// Serve reads one JSON frame per line from r and writes one JSON line per
// frame to w: a FrameResult, or an ApiError for a frame that could not be
// applied. It returns nil when r reaches EOF.
func (s *Session) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxFrameSize)
	enc := json.NewEncoder(w)

	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		s.frames.Log(true, line)

		var out any
		var f apitypes.Frame
		if err := json.Unmarshal(line, &f); err != nil {
			out = &apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: fmt.Sprintf("invalid frame: %v", err)}
		} else if res, err := s.Apply(f); err != nil {
			out = &apitypes.ApiError{Status: 400, Title: "Bad Request", Detail: err.Error()}
		} else {
			out = res
		}

		b, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode frame result: %w", err)
		}
		s.frames.Log(false, b)
		if err := enc.Encode(json.RawMessage(b)); err != nil {
			return fmt.Errorf("write frame result: %w", err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	return nil
}

// DecodeFrames reads a JSON lines recording and calls fn for every frame.
// Blank lines and lines starting with '#' are skipped.
func DecodeFrames(r io.Reader, fn func(line int, f apitypes.Frame) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxFrameSize)
	n := 0
	for sc.Scan() {
		n++
		line := sc.Bytes()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		var f apitypes.Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return fmt.Errorf("line %d: %w", n, err)
		}
		if err := fn(n, f); err != nil {
			return err
		}
	}
	return sc.Err()
}
