package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

// ControllerList returns a handler that lists announced controllers.
// Error logging is centralized in the API server.
func ControllerList(tr *tracker.Tracker) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		payload := apitypes.ControllerListResponse{Controllers: []apitypes.ControllerInfo{}}
		tr.View(func(cs []*controller.Controller) {
			for _, c := range cs {
				payload.Controllers = append(payload.Controllers, session.ControllerInfo(c))
			}
		})
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
