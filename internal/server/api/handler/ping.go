package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/server/api"
)

// ServerName identifies this server in ping and session greetings.
const ServerName = "xrinput"

// Ping returns a handler reporting server identity and version.
func Ping(version string) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, err := json.Marshal(apitypes.PingResponse{Server: ServerName, Version: version})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
