package http

import (
	"context"
	"net/http"

	"finplan/internal/log"
	"finplan/internal/scenario"
	"finplan/internal/services"
)

type amortizationResponse struct {
	*services.Schedule
	SheetsRef string `json:"sheets_ref,omitempty"`
}

type queuedResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleAmortization pays off one loan. ?export=true also writes the
// schedule to a sheet.
func (s *Server) handleAmortization(w http.ResponseWriter, r *http.Request) {
	export, err := queryBool(r, "export")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var req services.AmortizationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	sched, ref, err := s.svc.Amortize(r.Context(), req, export)
	if err != nil {
		if sched != nil {
			// the schedule is sound, only the export failed
			writeError(w, r, http.StatusBadGateway, err)
			return
		}
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, amortizationResponse{Schedule: sched, SheetsRef: ref})
}

// handleProjection projects a scenario. ?async=true queues it for the
// worker and answers 202 with the request id the result will carry.
func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	export, err := queryBool(r, "export")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	async, err := queryBool(r, "async")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	var sc scenario.Scenario
	if err := decodeJSON(w, r, &sc); err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	if async {
		id, err := s.svc.Submit(r.Context(), sc, export)
		if err != nil {
			writeError(w, r, statusFor(err), err)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Projection queued",
			log.FieldProjectionID, id,
			log.FieldScenario, sc.Name)
		writeJSON(w, http.StatusAccepted, queuedResponse{ID: id, Status: "queued"})
		return
	}

	out, err := s.svc.Project(r.Context(), &sc, export)
	if err != nil {
		if out != nil {
			writeError(w, r, http.StatusBadGateway, err)
			return
		}
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, statusResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ready"})
}
