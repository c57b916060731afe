package tools

import (
	"context"

	"github.com/justinwongcn/garmin-mcp/garmin"
	"github.com/justinwongcn/garmin-mcp/protocol"
	"github.com/justinwongcn/garmin-mcp/server"
)

type listDevicesRequest struct{}

type deviceIDRequest struct {
	DeviceID int64 `json:"device_id" description:"Garmin device ID"`
}

func (h *handlers) registerDeviceTools(srv *server.Server) error {
	if err := register(srv, "list_devices",
		"List registered Garmin devices.",
		listDevicesRequest{}, h.listDevices); err != nil {
		return err
	}
	return register(srv, "get_device_settings",
		"Get settings for a specific device.",
		deviceIDRequest{}, h.getDeviceSettings)
}

func (h *handlers) listDevices(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	devices, err := h.api.Devices(ctx)
	if err != nil {
		return h.errResult("list_devices", err)
	}
	return h.okResult("list_devices",
		map[string]any{"devices": devices, "count": len(devices)},
		nil, nil, nil)
}

func (h *handlers) getDeviceSettings(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var in deviceIDRequest
	if err := unmarshalArgs(req.RawArguments, &in); err != nil {
		return h.errResult("get_device_settings", garmin.NewValidationError("%v", err))
	}
	if in.DeviceID <= 0 {
		return h.errResult("get_device_settings", garmin.NewValidationError("device_id must be positive, got %d", in.DeviceID))
	}

	settings, err := h.api.DeviceSettings(ctx, in.DeviceID)
	if err != nil {
		return h.errResult("get_device_settings", err)
	}
	return h.okResult("get_device_settings", settings, nil, map[string]any{"device_id": in.DeviceID}, nil)
}
