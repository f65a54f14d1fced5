package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

type Replay struct {
	File    string        `arg:"" type:"existingfile" help:"Recording with one JSON frame per line"`
	JSON    bool          `help:"Print JSON frame results even on a terminal"`
	Inspect bool          `help:"Dump every controller after the last frame"`
	Tracker TrackerConfig `embed:"" prefix:"tracker."`
	Arm     ArmConfig     `embed:"" prefix:"arm."`
}

// Run is called by Kong when the replay command is executed.
func (r *Replay) Run(logger *slog.Logger, frames log.FrameLogger) error {
	f, err := os.Open(r.File)
	if err != nil {
		return err
	}
	defer f.Close()

	asJSON := r.JSON || !term.IsTerminal(int(os.Stdout.Fd()))
	return r.replay(f, os.Stdout, asJSON, logger, frames)
}

func (r *Replay) replay(in io.Reader, out io.Writer, asJSON bool, logger *slog.Logger, frames log.FrameLogger) error {
	tcfg, err := r.Tracker.Build(r.Arm, logger)
	if err != nil {
		return fmt.Errorf("tracker config: %w", err)
	}
	tr := tracker.New(tcfg)
	s := session.New(tr, session.Options{Logger: logger, Frames: frames})

	enc := json.NewEncoder(out)
	n := 0
	err = session.DecodeFrames(in, func(line int, f apitypes.Frame) error {
		res, err := s.Apply(f)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		n++
		if asJSON {
			return enc.Encode(res)
		}
		for _, e := range res.Events {
			fmt.Fprintf(out, "%10.1fms  %s\n", f.Time, FormatEvent(e))
		}
		for _, p := range res.Haptics {
			fmt.Fprintf(out, "%10.1fms  #%d haptic-pulse actuator=%d intensity=%.2f duration=%dms\n",
				f.Time, p.Slot, p.Actuator, p.Intensity, p.DurationMs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug("replay finished", "frames", n, "file", r.File)
	if r.Inspect {
		tr.View(func(cs []*controller.Controller) {
			for _, c := range cs {
				fmt.Fprint(out, c.Inspect())
			}
		})
	}
	return nil
}

// FormatEvent renders an event as one human readable line.
func FormatEvent(e apitypes.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", e.Slot, e.Type)
	switch {
	case e.Controller != nil:
		fmt.Fprintf(&b, " %q (%s, %ddof, %s)", e.Controller.ID, e.Controller.Style, e.Controller.DOF, e.Controller.Hand)
	case e.Values != nil:
		vals := make([]string, len(e.Values))
		for i, v := range e.Values {
			vals[i] = fmt.Sprintf("%.4f", v)
		}
		fmt.Fprintf(&b, " [%s]", strings.Join(vals, ", "))
	case e.Value != nil:
		fmt.Fprintf(&b, " %.4f", *e.Value)
	case e.From != nil && e.To != nil:
		fmt.Fprintf(&b, " %s -> %s", *e.From, *e.To)
	}
	if e.Alias {
		b.WriteString(" (alias)")
	}
	return b.String()
}
