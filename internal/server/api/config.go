package api

import "time"

// ServerConfig represents the API part of the serve command configuration.
type ServerConfig struct {
	Addr               string        `help:"API server listen address" default:":3243" env:"XRINPUT_API_ADDR"`
	SessionIdleTimeout time.Duration `help:"Drop a session that sends no frame for this long (0 disables)" default:"30s" env:"XRINPUT_API_SESSION_IDLE_TIMEOUT"`
	Password           string        `help:"Require clients to authenticate with this password; traffic is then encrypted (empty disables)" env:"XRINPUT_API_PASSWORD"`
	ConnectionTimeout  time.Duration `kong:"-"`
}
