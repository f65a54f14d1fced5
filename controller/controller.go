// Package controller tracks one hand-held spatial input device: its axis and
// button state, the change events derived from it, and its world pose.
package controller

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/armmodel"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/mapping"
)

// StyleUnknown is reported for devices missing from the mapping table.
const StyleUnknown = "unknown"

// Options configures a new Controller.
type Options struct {
	// Table resolves semantic names; nil means mapping.Builtin().
	Table *mapping.Table
	// Arm is used if the device ever lacks a position; the zero value means
	// armmodel.DefaultConfig().
	Arm       armmodel.Config
	Logger    *slog.Logger
	Verbosity log.Verbosity
}

// Controller aggregates identity, State and Compositor for one device.
// Update must not be called concurrently for the same Controller.
type Controller struct {
	id     string
	style  string
	mapped bool
	dof    int

	state *State
	comp  *Compositor

	logger    *slog.Logger
	verbosity log.Verbosity
}

// New builds a controller from its first present snapshot. DOF is fixed
// here from the capability flags.
func New(snap *Snapshot, opts Options) *Controller {
	table := opts.Table
	if table == nil {
		table = mapping.Builtin()
	}
	armCfg := opts.Arm
	if armCfg == (armmodel.Config{}) {
		armCfg = armmodel.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}

	entry, mapped := table.Lookup(snap.ID)
	c := &Controller{
		id:        snap.ID,
		style:     StyleUnknown,
		mapped:    mapped,
		dof:       snap.DOF(),
		state:     NewState(snap, entry),
		comp:      NewCompositor(armCfg),
		logger:    logger.With("slot", snap.Index, "id", snap.ID),
		verbosity: opts.Verbosity,
	}
	if mapped && entry.Style != "" {
		c.style = entry.Style
	}
	c.comp.onArmModel = func() {
		if c.verbosity.Lifecycle() {
			c.logger.Info("arm model engaged", "dof", c.dof)
		}
	}
	if !mapped && c.verbosity.Lifecycle() {
		c.logger.Info("unrecognized controller, using positional names", "buttons", len(snap.Buttons), "axes", len(snap.Axes))
	}
	return c
}

// Update is the per-frame entry point: compose the pose, then diff state
// and push the resulting events to sink.
func (c *Controller) Update(snap *Snapshot, host HostPose, sink Sink) {
	if sink == nil {
		sink = Discard
	}
	c.comp.Compose(snap.Pose, host)

	if c.verbosity.Events() {
		next := sink
		sink = SinkFunc(func(e Event) {
			c.logger.Debug("event", "type", e.Type(), "alias", e.Alias)
			next.Emit(e)
		})
	}
	c.state.Diff(snap, sink)
}

func (c *Controller) ID() string         { return c.id }
func (c *Controller) Slot() int          { return c.state.Slot() }
func (c *Controller) Style() string      { return c.style }
func (c *Controller) Mapped() bool       { return c.mapped }
func (c *Controller) DOF() int           { return c.dof }
func (c *Controller) Handedness() string { return c.state.Handedness() }

// Axis returns one axis value by index.
func (c *Controller) Axis(i int) (float64, bool) { return c.state.Axis(i) }

// Axes returns the current values of the named axis group.
func (c *Controller) Axes(group string) ([]float64, bool) { return c.state.Group(group) }

// Button returns one button by index.
func (c *Controller) Button(i int) (Button, bool) { return c.state.Button(i) }

// ButtonByName returns one button by semantic name. "primary" resolves the
// primary button.
func (c *Controller) ButtonByName(name string) (Button, bool) { return c.state.ButtonByName(name) }

// State exposes the stored values for read-only inspection.
func (c *Controller) State() *State { return c.state }

// SetStanding replaces the standing reference transform.
func (c *Controller) SetStanding(m mgl64.Mat4) { c.comp.SetStanding(m) }

// Orientation returns the orientation used by the last update.
func (c *Controller) Orientation() mgl64.Quat { return c.comp.Orientation() }

// Position returns the local position used by the last update.
func (c *Controller) Position() mgl64.Vec3 { return c.comp.Position() }

// WorldMatrix returns the world transform written by the last update.
func (c *Controller) WorldMatrix() mgl64.Mat4 { return c.comp.World() }

// UsesArmModel reports whether the arm model was ever engaged.
func (c *Controller) UsesArmModel() bool { return c.comp.ArmModel() != nil }

// Inspect renders a human readable dump of the controller.
func (c *Controller) Inspect() string {
	var b strings.Builder
	hand := c.Handedness()
	if hand == "" {
		hand = "unknown"
	}
	fmt.Fprintf(&b, "#%d %s\n", c.Slot(), c.id)
	fmt.Fprintf(&b, "  style: %s\n", c.style)
	fmt.Fprintf(&b, "  dof: %d\n", c.dof)
	fmt.Fprintf(&b, "  handedness: %s\n", hand)

	groups := c.state.Groups()
	b.WriteString("  axes:\n")
	if len(groups) == 0 {
		for i, v := range c.state.AxisValues() {
			fmt.Fprintf(&b, "    %d: %.4f\n", i, v)
		}
	}
	for _, g := range groups {
		vals, _ := c.state.Group(g.Name)
		fmt.Fprintf(&b, "    %s %v: %s\n", g.Name, g.Indexes, formatFloats(vals))
	}

	if p, ok := c.state.Primary(); ok {
		fmt.Fprintf(&b, "  primary: %s\n", p.Name)
	}
	b.WriteString("  buttons:\n")
	for _, btn := range c.state.Buttons() {
		fmt.Fprintf(&b, "    %d %s: value=%.4f touched=%t pressed=%t\n",
			btn.Index, btn.Name, btn.Value, btn.Touched, btn.Pressed)
	}
	return b.String()
}

func formatFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
