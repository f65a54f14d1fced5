package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/controller"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/tracker"
)

// ControllerInspect returns a handler that dumps one controller by slot.
func ControllerInspect(tr *tracker.Tracker) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		slotStr, ok := req.Params["slot"]
		if !ok {
			return api.ErrBadRequest("missing slot parameter")
		}
		slot, err := strconv.Atoi(slotStr)
		if err != nil || slot < 0 {
			return api.ErrBadRequest(fmt.Sprintf("invalid slot: %q", slotStr))
		}

		var payload *apitypes.ControllerInspectResponse
		tr.View(func(cs []*controller.Controller) {
			for _, c := range cs {
				if c.Slot() == slot {
					payload = &apitypes.ControllerInspectResponse{
						Controller: session.ControllerInfo(c),
						Dump:       c.Inspect(),
					}
					return
				}
			}
		})
		if payload == nil {
			return api.ErrNotFound(fmt.Sprintf("no controller in slot %d", slot))
		}

		b, err := json.Marshal(payload)
		if err != nil {
			return api.ErrInternal(fmt.Sprintf("failed to marshal response: %v", err))
		}
		res.JSON = string(b)
		return nil
	}
}
