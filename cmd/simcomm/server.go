package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"i4.energy/across/simcomm/modem"
)

// Connection is the part of *modem.Modem the HTTP API drives.
type Connection interface {
	Status() modem.Status
	Connect(host string, port uint16) error
	Disconnect()
	Send(p []byte) (int, error)
	Recv(p []byte) int
	RequestRSSI()
	Exec(ctx context.Context, cmd string) (string, error)
}

// Server handles incoming HTTP requests for interacting with the
// configured modem instance
type Server struct {
	Logger *slog.Logger
	Modem  Connection
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /rssi", s.handleRSSI)
	mux.HandleFunc("POST /connect", s.handleConnect)
	mux.HandleFunc("POST /disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /send", s.handleSend)
	mux.HandleFunc("GET /recv", s.handleRecv)
	mux.HandleFunc("POST /at", s.handleAT)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	s.sendJSON(w, resp, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, s.Modem.Status(), http.StatusOK)
}

func (s *Server) handleRSSI(w http.ResponseWriter, r *http.Request) {
	s.Modem.RequestRSSI()
	w.WriteHeader(http.StatusAccepted)
}

// handleConnect starts a connection; progress is visible through /status
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	type ConnectRequest struct {
		Host string `json:"host"`
		Port uint16 `json:"port"`
	}

	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.Host == "" || req.Port == 0 {
		s.sendError(w, "both 'host' and 'port' fields are required", http.StatusBadRequest)
		return
	}

	err := s.Modem.Connect(req.Host, req.Port)
	switch {
	case errors.Is(err, modem.ErrBusy):
		s.sendError(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		s.Logger.Error("Failed to connect", "error", err, "host", req.Host)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Connection requested", "host", req.Host, "port", req.Port)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.Modem.Disconnect()
	w.WriteHeader(http.StatusAccepted)
}

// handleSend queues the raw request body for the remote peer
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := s.Modem.Send(body)
	if err != nil {
		s.sendError(w, err.Error(), http.StatusConflict)
		return
	}

	type SendResponse struct {
		Accepted int `json:"accepted"`
	}
	s.sendJSON(w, SendResponse{Accepted: n}, http.StatusOK)
}

// handleRecv returns whatever payload has been received so far
func (s *Server) handleRecv(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, s.Modem.Status().Readable)
	n := s.Modem.Recv(buf)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	w.Write(buf[:n])
}

// handleAT runs a raw command while the connection engine is idle
func (s *Server) handleAT(w http.ResponseWriter, r *http.Request) {
	type ATRequest struct {
		Command string `json:"command"`
	}
	type ATResponse struct {
		Response string `json:"response"`
		Error    string `json:"error,omitempty"`
	}

	var req ATRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Command == "" {
		s.sendError(w, "'command' field is required", http.StatusBadRequest)
		return
	}

	resp, err := s.Modem.Exec(r.Context(), req.Command)
	if err != nil {
		s.Logger.Warn("AT command failed", "command", req.Command, "error", err)
		s.sendJSON(w, ATResponse{Response: resp, Error: err.Error()}, http.StatusBadGateway)
		return
	}
	s.sendJSON(w, ATResponse{Response: resp}, http.StatusOK)
}
