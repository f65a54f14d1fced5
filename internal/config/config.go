// Package config holds the kong command line root.
package config

import "github.com/Alia5/xrinput/internal/cmd"

type Log struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"XRINPUT_LOG_LEVEL"`
	File    string `help:"Additionally write logs to this file" type:"path" env:"XRINPUT_LOG_FILE"`
	RawFile string `help:"Write raw session frames and results to this file" type:"path" env:"XRINPUT_LOG_RAW_FILE"`
}

type CLI struct {
	ConfigFile string `name:"config" help:"Configuration file (json, yaml or toml)" type:"path" env:"XRINPUT_CONFIG"`
	Log        Log    `embed:"" prefix:"log."`

	Serve    cmd.Serve           `cmd:"" help:"Run the tracker behind the TCP API and the event feed"`
	Replay   cmd.Replay          `cmd:"" help:"Run a recorded frame file through a tracker and print the events"`
	Mappings cmd.MappingsCommand `cmd:"" help:"Inspect the controller mapping table"`
	Config   cmd.ConfigCommand   `cmd:"" help:"Configuration helpers"`
}
