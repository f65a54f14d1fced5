package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Alia5/xrinput/armmodel"
	"github.com/Alia5/xrinput/internal/log"
	"github.com/Alia5/xrinput/mapping"
	"github.com/Alia5/xrinput/tracker"
)

// TrackerConfig tunes controller lifecycle handling.
type TrackerConfig struct {
	ConnectDelay    time.Duration `help:"Frame time a new controller must stay present before it is announced" default:"500ms" env:"XRINPUT_TRACKER_CONNECT_DELAY"`
	Verbosity       float64       `help:"Tracker diagnostics in [0,1]: 0.5 lifecycle, 0.7 every event" default:"0" env:"XRINPUT_TRACKER_VERBOSITY"`
	Mappings        string        `help:"Mapping table file (yaml, toml or json) merged over the builtin table" type:"path" env:"XRINPUT_TRACKER_MAPPINGS"`
	HapticIntensity float64       `help:"Intensity of the pulse sent when a controller connects" default:"0.1" env:"XRINPUT_TRACKER_HAPTIC_INTENSITY"`
	HapticDuration  time.Duration `help:"Duration of the connect pulse, 0 disables it" default:"300ms" env:"XRINPUT_TRACKER_HAPTIC_DURATION"`
}

// ArmConfig exposes the arm model offsets, in meters, as x,y,z lists.
type ArmConfig struct {
	HeadElbow            []float64 `help:"Head to elbow offset" default:"0.155,-0.465,-0.15" env:"XRINPUT_ARM_HEAD_ELBOW"`
	ElbowWrist           []float64 `help:"Elbow to wrist offset" default:"0,0,-0.25" env:"XRINPUT_ARM_ELBOW_WRIST"`
	WristController      []float64 `help:"Wrist to controller offset" default:"0,0,0.05" env:"XRINPUT_ARM_WRIST_CONTROLLER"`
	ArmExtension         []float64 `help:"Elbow shift at full extension" default:"-0.08,0.14,0.08" env:"XRINPUT_ARM_EXTENSION"`
	ElbowBendRatio       float64   `help:"Share of rotation taken by the elbow at rest" default:"0.4" env:"XRINPUT_ARM_ELBOW_BEND_RATIO"`
	ExtensionRatioWeight float64   `help:"How much a raised controller shifts rotation to the wrist" default:"0.4" env:"XRINPUT_ARM_EXTENSION_RATIO_WEIGHT"`
	MinAngularSpeed      float64   `help:"Angular speed (rad/s) read as a torso turn" default:"0.61" env:"XRINPUT_ARM_MIN_ANGULAR_SPEED"`
	MinExtensionAngle    float64   `help:"Pitch (degrees) where arm extension starts" default:"11" env:"XRINPUT_ARM_MIN_EXTENSION_ANGLE"`
	MaxExtensionAngle    float64   `help:"Pitch (degrees) of full arm extension" default:"50" env:"XRINPUT_ARM_MAX_EXTENSION_ANGLE"`
}

func vec3(name string, v []float64, def mgl64.Vec3) (mgl64.Vec3, error) {
	switch len(v) {
	case 0:
		return def, nil
	case 3:
		return mgl64.Vec3{v[0], v[1], v[2]}, nil
	}
	return mgl64.Vec3{}, fmt.Errorf("arm %s: want 3 values, got %d", name, len(v))
}

// Model converts the flags into an armmodel.Config. Unset vectors keep the
// model defaults.
func (a ArmConfig) Model() (armmodel.Config, error) {
	cfg := armmodel.DefaultConfig()
	var err error
	if cfg.HeadElbowOffset, err = vec3("head-elbow", a.HeadElbow, cfg.HeadElbowOffset); err != nil {
		return cfg, err
	}
	if cfg.ElbowWristOffset, err = vec3("elbow-wrist", a.ElbowWrist, cfg.ElbowWristOffset); err != nil {
		return cfg, err
	}
	if cfg.WristControllerOffset, err = vec3("wrist-controller", a.WristController, cfg.WristControllerOffset); err != nil {
		return cfg, err
	}
	if cfg.ArmExtensionOffset, err = vec3("extension", a.ArmExtension, cfg.ArmExtensionOffset); err != nil {
		return cfg, err
	}
	if a.MinExtensionAngle >= a.MaxExtensionAngle && (a.MinExtensionAngle != 0 || a.MaxExtensionAngle != 0) {
		return cfg, fmt.Errorf("arm extension angles: min %.1f must be below max %.1f", a.MinExtensionAngle, a.MaxExtensionAngle)
	}
	if a.MaxExtensionAngle != 0 {
		cfg.MinExtensionAngle = a.MinExtensionAngle
		cfg.MaxExtensionAngle = a.MaxExtensionAngle
	}
	if a.ElbowBendRatio != 0 {
		cfg.ElbowBendRatio = a.ElbowBendRatio
	}
	if a.ExtensionRatioWeight != 0 {
		cfg.ExtensionRatioWeight = a.ExtensionRatioWeight
	}
	if a.MinAngularSpeed != 0 {
		cfg.MinAngularSpeed = a.MinAngularSpeed
	}
	return cfg, nil
}

// Build assembles the tracker configuration, loading and merging the extra
// mapping table when one is configured.
func (c TrackerConfig) Build(arm ArmConfig, logger *slog.Logger) (tracker.Config, error) {
	cfg := tracker.DefaultConfig()
	cfg.ConnectDelay = c.ConnectDelay
	cfg.HapticIntensity = c.HapticIntensity
	cfg.HapticDuration = c.HapticDuration
	cfg.Verbosity = log.Verbosity(c.Verbosity).Clamp()
	cfg.Logger = logger

	model, err := arm.Model()
	if err != nil {
		return cfg, err
	}
	cfg.Arm = model

	if c.Mappings != "" {
		extra, err := mapping.Load(c.Mappings)
		if err != nil {
			return cfg, err
		}
		cfg.Table = cfg.Table.Merge(extra)
		logger.Info("loaded controller mappings", "file", c.Mappings, "entries", extra.Len())
	}
	return cfg, nil
}
