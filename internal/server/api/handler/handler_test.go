package handler_test

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/tracker"
)

func daydream(idx int) *controller.Snapshot {
	return &controller.Snapshot{
		ID:      "Daydream Controller",
		Index:   idx,
		Hand:    controller.HandRight,
		Axes:    []float64{0, 0},
		Buttons: []controller.ButtonReading{{}},
		Pose: &controller.PoseReading{
			Orientation:    []float64{0, 0, 0, 1},
			HasOrientation: true,
		},
	}
}

func scan(tr *tracker.Tracker, snaps ...*controller.Snapshot) {
	tr.Scan(tracker.Frame{
		Time:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		HeadOrientation: mgl64.QuatIdent(),
		Snapshots:       snaps,
	})
}
