// Package httpapi exposes the operator REST surface: fleet status,
// pending confirmations, and the five write operations an operator uses
// to acknowledge filament swaps, confirm print outcomes, and intervene
// on a stuck printer. Grounded on the net/http + promhttp.Handler
// mounting style daemon_server.go uses for its metrics listener,
// generalized here into a full method+pattern ServeMux.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/print-farm/farm-go/internal/application/common"
	"github.com/print-farm/farm-go/internal/application/operator/commands"
	"github.com/print-farm/farm-go/internal/application/operator/queries"
	"github.com/print-farm/farm-go/internal/domain/device"
	"github.com/print-farm/farm-go/internal/infrastructure/config"
)

// Server is the operator-facing HTTP server. It holds no business logic
// of its own: every handler decodes the request, builds a mediator
// command/query, and translates the response to JSON.
type Server struct {
	mediator common.Mediator
	taskRepo device.Repository
	now      func() time.Time

	httpServer *http.Server
}

// NewServer wires the eight operator endpoints onto a ServeMux.
func NewServer(mediator common.Mediator, taskRepo device.Repository, cfg config.HTTPConfig) *Server {
	s := &Server{
		mediator: mediator,
		taskRepo: taskRepo,
		now:      time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /printers", s.listPrinters)
	mux.HandleFunc("GET /pending_filament_changes", s.listPendingFilamentChanges)
	mux.HandleFunc("GET /print_jobs_pending_for_confirmation", s.listJobsPendingConfirmation)
	mux.HandleFunc("POST /operations/confirm_filament_change/{id}", s.confirmFilamentChange)
	mux.HandleFunc("POST /operations/confirm_job_result/{id}", s.confirmJobResult)
	mux.HandleFunc("POST /operations/cancel_active_task/{id}", s.cancelActiveTask)
	mux.HandleFunc("POST /operations/reset_printer/{id}", s.resetPrinter)
	mux.HandleFunc("POST /operations/toggle_printer_en_dis/{id}", s.togglePrinterEnabled)

	s.httpServer = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler exposes the routed mux directly, for tests that drive requests
// without binding a real listener.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving in the background and returns immediately, without
// waiting for the listener to bind; a listen or serve failure is reported
// on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("operator http server: %w", err)
		}
	}()
	return errCh
}

// Stop gracefully shuts the server down within the given timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) listPrinters(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &queries.ListPrintersQuery{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	view := resp.(*queries.ListPrintersResponse)

	out := make([]printerView, 0, len(view.Printers))
	for _, pv := range view.Printers {
		out = append(out, s.toPrinterView(r.Context(), pv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPendingFilamentChanges(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &queries.ListPendingFilamentChangesQuery{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.(*queries.ListPendingFilamentChangesResponse).Changes)
}

func (s *Server) listJobsPendingConfirmation(w http.ResponseWriter, r *http.Request) {
	resp, err := s.mediator.Send(r.Context(), &queries.ListPrintJobsPendingConfirmationQuery{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, resp.(*queries.ListPrintJobsPendingConfirmationResponse).Jobs)
}

func (s *Server) confirmFilamentChange(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, err = s.mediator.Send(r.Context(), &commands.ConfirmFilamentChangeCommand{FilamentChangeID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) confirmJobResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return
	}
	_, err = s.mediator.Send(r.Context(), &commands.ConfirmJobResultCommand{PrintJobID: id, Success: body.Success})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cancelActiveTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, err = s.mediator.Send(r.Context(), &commands.CancelActiveTaskCommand{PrinterID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetPrinter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, err = s.mediator.Send(r.Context(), &commands.ResetPrinterCommand{PrinterID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) togglePrinterEnabled(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	_, err = s.mediator.Send(r.Context(), &commands.TogglePrinterEnabledCommand{PrinterID: id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", r.PathValue("id"), err)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
