// Package tracker owns the slot -> controller table and runs the per-frame
// scan that creates, updates and destroys controllers.
package tracker

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/armmodel"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/mapping"
)

const (
	DefaultConnectDelay    = 500 * time.Millisecond
	DefaultHapticIntensity = 0.1
	DefaultHapticDuration  = 300 * time.Millisecond
)

// Config tunes a Tracker.
type Config struct {
	Table *mapping.Table
	Arm   armmodel.Config
	// ConnectDelay is measured on frame time. Zero announces a controller in
	// the frame it first appears. Changes seen during the delay are reported
	// right after controller-connected.
	ConnectDelay    time.Duration
	HapticIntensity float64
	HapticDuration  time.Duration
	Logger          *slog.Logger
	Verbosity       log.Verbosity
}

// DefaultConfig returns the builtin table, the default arm and the
// standard connect acknowledgement.
func DefaultConfig() Config {
	return Config{
		Table:           mapping.Builtin(),
		Arm:             armmodel.DefaultConfig(),
		ConnectDelay:    DefaultConnectDelay,
		HapticIntensity: DefaultHapticIntensity,
		HapticDuration:  DefaultHapticDuration,
	}
}

// Frame is everything the host supplies once per tick.
type Frame struct {
	Time            time.Time
	HeadPosition    mgl64.Vec3
	HeadOrientation mgl64.Quat
	// Standing replaces the standing reference transform when non-nil.
	Standing  *mgl64.Mat4
	Snapshots []*controller.Snapshot
}

type slot struct {
	ctrl      *controller.Controller
	connectAt time.Time
	announced bool
	// pending holds the events of an unannounced controller until its
	// controller-connected event has gone out.
	pending controller.Recorder
}

// Tracker is the controller registry. Scan is its only writer; the read
// accessors may be used from other goroutines.
type Tracker struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.RWMutex
	slots    map[int]*slot
	standing mgl64.Mat4
	now      func() time.Time
}

// New creates an empty tracker.
func New(cfg Config) *Tracker {
	if cfg.Table == nil {
		cfg.Table = mapping.Builtin()
	}
	if cfg.Arm == (armmodel.Config{}) {
		cfg.Arm = armmodel.DefaultConfig()
	}
	if cfg.ConnectDelay < 0 {
		cfg.ConnectDelay = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	return &Tracker{
		cfg:      cfg,
		logger:   cfg.Logger,
		slots:    map[int]*slot{},
		standing: mgl64.Ident4(),
		now:      time.Now,
	}
}

// Scan applies one frame and returns the events it produced.
func (t *Tracker) Scan(f Frame) []controller.Event {
	rec := &controller.Recorder{}
	t.ScanTo(f, rec)
	return rec.Take()
}

// ScanTo applies one frame and pushes events to sink. The registry lock is
// released before sink sees any event, so sinks may read the tracker.
func (t *Tracker) ScanTo(f Frame, sink controller.Sink) {
	if sink == nil {
		sink = controller.Discard
	}
	rec := &controller.Recorder{}

	t.mu.Lock()
	t.scan(f, rec)
	t.mu.Unlock()

	for _, e := range rec.Events {
		sink.Emit(e)
	}
}

func (t *Tracker) scan(f Frame, sink controller.Sink) {
	if f.Time.IsZero() {
		f.Time = t.now()
	}
	if f.Standing != nil {
		t.setStanding(*f.Standing)
	}
	host := controller.HostPose{
		HeadPosition:    f.HeadPosition,
		HeadOrientation: f.HeadOrientation,
		Time:            f.Time,
	}

	present := map[int]*controller.Snapshot{}
	var order []int
	for _, snap := range f.Snapshots {
		if !snap.Present() {
			continue
		}
		if _, dup := present[snap.Index]; dup {
			if t.cfg.Verbosity.Lifecycle() {
				t.logger.Warn("duplicate slot in frame, ignoring", "slot", snap.Index, "id", snap.ID)
			}
			continue
		}
		present[snap.Index] = snap
		order = append(order, snap.Index)
	}

	for _, idx := range t.sortedSlots() {
		s := t.slots[idx]
		snap, ok := present[idx]
		if ok && snap.ID == s.ctrl.ID() {
			continue
		}
		t.remove(idx, s, sink)
	}

	for _, idx := range order {
		snap := present[idx]
		s, ok := t.slots[idx]
		if !ok {
			t.add(snap, f.Time)
			s = t.slots[idx]
		}

		if s.announced {
			s.ctrl.Update(snap, host, sink)
			continue
		}

		s.ctrl.Update(snap, host, &s.pending)
		if f.Time.Before(s.connectAt) {
			continue
		}
		s.announced = true
		sink.Emit(controller.Event{Kind: controller.EventConnected, Slot: idx, Controller: s.ctrl})
		if t.cfg.Verbosity.Lifecycle() {
			t.logger.Info("controller connected", "slot", idx, "id", s.ctrl.ID(), "style", s.ctrl.Style(), "dof", s.ctrl.DOF())
		}
		for _, e := range s.pending.Take() {
			sink.Emit(e)
		}
	}
}

func (t *Tracker) add(snap *controller.Snapshot, now time.Time) {
	ctrl := controller.New(snap, controller.Options{
		Table:     t.cfg.Table,
		Arm:       t.cfg.Arm,
		Logger:    t.logger,
		Verbosity: t.cfg.Verbosity,
	})
	ctrl.SetStanding(t.standing)
	t.slots[snap.Index] = &slot{ctrl: ctrl, connectAt: now.Add(t.cfg.ConnectDelay)}

	if len(snap.Haptics) > 0 && snap.Haptics[0] != nil && t.cfg.HapticDuration > 0 {
		if err := snap.Haptics[0].Pulse(t.cfg.HapticIntensity, t.cfg.HapticDuration); err != nil && t.cfg.Verbosity.Lifecycle() {
			t.logger.Warn("connect pulse failed", "slot", snap.Index, "error", err)
		}
	}
}

// remove destroys a slot. A controller that was never announced goes away
// silently since no listener knows about it.
func (t *Tracker) remove(idx int, s *slot, sink controller.Sink) {
	delete(t.slots, idx)
	if !s.announced {
		if t.cfg.Verbosity.Lifecycle() {
			t.logger.Info("controller lost before announcement", "slot", idx, "id", s.ctrl.ID())
		}
		return
	}
	sink.Emit(controller.Event{Kind: controller.EventDisconnected, Slot: idx, Controller: s.ctrl})
	if t.cfg.Verbosity.Lifecycle() {
		t.logger.Info("controller disconnected", "slot", idx, "id", s.ctrl.ID())
	}
}

func (t *Tracker) sortedSlots() []int {
	out := make([]int, 0, len(t.slots))
	for idx := range t.slots {
		out = append(out, idx)
	}
	slices.Sort(out)
	return out
}

func (t *Tracker) setStanding(m mgl64.Mat4) {
	t.standing = m
	for _, s := range t.slots {
		s.ctrl.SetStanding(m)
	}
}

// SetStanding replaces the standing reference transform for current and
// future controllers.
func (t *Tracker) SetStanding(m mgl64.Mat4) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setStanding(m)
}

// Controller returns the announced controller in slot idx.
func (t *Tracker) Controller(idx int) (*controller.Controller, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.slots[idx]
	if !ok || !s.announced {
		return nil, false
	}
	return s.ctrl, true
}

// Controllers returns the announced controllers ordered by slot.
func (t *Tracker) Controllers() []*controller.Controller {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*controller.Controller
	for _, idx := range t.sortedSlots() {
		if s := t.slots[idx]; s.announced {
			out = append(out, s.ctrl)
		}
	}
	return out
}

// View runs fn with the registry read-locked so a concurrent Scan cannot
// mutate the controllers fn inspects. fn must not retain the slice.
func (t *Tracker) View(fn func([]*controller.Controller)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*controller.Controller
	for _, idx := range t.sortedSlots() {
		if s := t.slots[idx]; s.announced {
			out = append(out, s.ctrl)
		}
	}
	fn(out)
}

// Pending returns the number of controllers waiting for their connect
// announcement.
func (t *Tracker) Pending() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, s := range t.slots {
		if !s.announced {
			n++
		}
	}
	return n
}

// Table returns the mapping table controllers are resolved against.
func (t *Tracker) Table() *mapping.Table { return t.cfg.Table }

// ConnectDelay returns the effective announcement delay.
func (t *Tracker) ConnectDelay() time.Duration { return t.cfg.ConnectDelay }
