package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/xrinput/apitypes"
	"github.com/Alia5/xrinput/internal/server/api"
	"github.com/Alia5/xrinput/internal/session"
	"github.com/Alia5/xrinput/mapping"
)

// MappingList returns a handler listing the semantic table in use.
func MappingList(table *mapping.Table) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, err := json.Marshal(apitypes.MappingListResponse{Mappings: session.MappingEntries(table)})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
