package api

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/joeshaw/aveiro-bus/internal/exporter"
	"github.com/joeshaw/aveiro-bus/internal/logging"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

// handleLinesKML serves the whole network as a KML document.
func (s *Server) handleLinesKML(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := exporter.WriteLinesKML(&buf, "AveiroBus", exporter.NetworkLines(s.store)); err != nil {
		logging.WithContext(r.Context()).Error("Error writing KML", zap.Error(err))
		s.sendErrorResponse(w, r, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", kmlContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="aveirobus-lines.kml"`)
	w.Write(buf.Bytes())
}
