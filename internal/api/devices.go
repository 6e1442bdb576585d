package api

import (
	"net/http"

	"github.com/Wolfieeewolf/lightscape/internal/device"
)

// handleListDevices returns the device inventory as the controller reports
// it, together with the most recent device error.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.devices.Devices()
	if devices == nil {
		devices = []device.Summary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":    devices,
		"count":      len(devices),
		"last_error": s.devices.LastError(),
	})
}
