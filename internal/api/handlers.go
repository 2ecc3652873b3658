package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"fishtank-aas/internal/aas"
	"fishtank-aas/internal/services"
)

// maxBodySize caps request bodies; a shell document is a few kilobytes.
const maxBodySize = 1 << 20

func (s *Server) handleGetShell(w http.ResponseWriter, r *http.Request) {
	shell, err := s.shells.Get(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shell)
}

func (s *Server) handleSaveShell(w http.ResponseWriter, r *http.Request) {
	var shell aas.Shell
	if err := decodeBody(w, r, &shell); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.shells.Save(r.Context(), &shell)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, &shell)
}

func (s *Server) handleVariableProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.shells.VariableProperties(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

func (s *Server) handleConstantProperties(w http.ResponseWriter, r *http.Request) {
	props, err := s.shells.ConstantProperties(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, props)
}

// updateRequest is the body of a property write. Value is either a JSON
// string or a JSON number.
type updateRequest struct {
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	value, err := propertyValue(w, r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	prop, err := s.shells.UpdateProperty(r.Context(), r.PathValue("id_short"), value)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, prop)
}

// propertyValue reads the new value from the JSON body, or from the value
// query parameter when the request has no body.
func propertyValue(w http.ResponseWriter, r *http.Request) (string, error) {
	if r.ContentLength == 0 && r.URL.Query().Has("value") {
		return r.URL.Query().Get("value"), nil
	}

	var req updateRequest
	if err := decodeBody(w, r, &req); err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrInvalidValue, err)
	}
	return renderValue(req.Value)
}

// renderValue converts a JSON string or number to the string form stored in
// the tree. Numbers are kept exactly as the client wrote them.
func renderValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: value is required", services.ErrInvalidValue)
	}

	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String(), nil
	}
	return "", fmt.Errorf("%w: value must be a string or a number", services.ErrInvalidValue)
}

func (s *Server) handleGetSubmodel(w http.ResponseWriter, r *http.Request) {
	sm, err := s.shells.Submodel(r.Context(), r.PathValue("id_short"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sm)
}

func (s *Server) handleTemperatures(w http.ResponseWriter, r *http.Request) {
	readings, err := s.temperatures.Recent(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

type healthResponse struct {
	Status        string `json:"status"`
	MQTTConnected bool   `json:"mqtt_connected"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if s.transport != nil {
		resp.MQTTConnected = s.transport.IsConnected()
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, aas.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidValue), errors.Is(err, aas.ErrInvalidTree):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err to the client. Server errors are logged and
// replaced by a generic message.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", RequestID(r.Context())),
			slog.Any("error", err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}
