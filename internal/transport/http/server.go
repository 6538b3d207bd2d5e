// package http implements the HTTP transport layer for the service.
// It handles incoming requests, decodes them, calls the appropriate service methods,
// and encodes the responses.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mzhurov/feature-lifecycle-service/internal/apperrors"
	"github.com/mzhurov/feature-lifecycle-service/internal/clients"
	"github.com/mzhurov/feature-lifecycle-service/internal/domain"
	"github.com/mzhurov/feature-lifecycle-service/internal/repository"
	"github.com/mzhurov/feature-lifecycle-service/internal/service"
	"github.com/mzhurov/feature-lifecycle-service/internal/validation"
	"github.com/mzhurov/feature-lifecycle-service/pkg/api"
	"github.com/mzhurov/feature-lifecycle-service/pkg/logger/sl"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	log       *slog.Logger
	lifecycle service.LifecycleService
}

// NewServer creates a new instance of the HTTP server.
func NewServer(log *slog.Logger, lifecycle service.LifecycleService) *Server {
	return &Server{
		log:       log,
		lifecycle: lifecycle,
	}
}

// Routes sets up the router with all middleware and API endpoints.
func (s *Server) Routes() http.Handler {
	mux := chi.NewRouter()

	mux.Use(s.requestID)
	mux.Use(s.logRequest)
	mux.Use(s.metricsMiddleware)

	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/proposals", func(r chi.Router) {
		r.Post("/", s.PostProposal)
		r.Get("/", s.GetProposals)

		r.Route("/{proposalID}", func(r chi.Router) {
			r.Get("/", s.GetProposal)
			r.Post("/generate", s.PostGenerate)
			r.Post("/validate", s.PostValidate)
			r.Post("/votes", s.PostVote)
			r.Post("/publish", s.PostPublish)
			r.Post("/deployments/confirm", s.PostConfirmDeployment)
			r.Get("/validations", s.GetValidations)
			r.Get("/deployments", s.GetDeployments)
		})
	})

	mux.Get("/stats", s.GetStats)

	return mux
}

// routePattern returns the chi route pattern for the request, falling back
// to the raw path when the router has not matched yet.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return r.URL.Path
}

// actor extracts the acting identity from the request headers. An empty
// value is legal here; services reject it where identity is required.
func actor(r *http.Request) domain.Actor {
	return domain.Actor(r.Header.Get(actorHeader))
}

func (s *Server) PostProposal(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostProposal"

	var req createProposalRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	proposal, err := s.lifecycle.CreateProposal(r.Context(), service.CreateProposalInput{
		Title:             req.Title,
		Description:       req.Description,
		RequestedBy:       req.RequestedBy,
		Priority:          api.Priority(req.Priority),
		Category:          req.Category,
		RequiredApprovals: req.RequiredApprovals,
	})
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusCreated, map[string]*api.Proposal{"proposal": proposal})
}

func (s *Server) GetProposals(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetProposals"

	var filter repository.ProposalFilter

	if v := r.URL.Query().Get("stage"); v != "" {
		stage := api.LifecycleStage(v)
		filter.Stage = &stage
	}

	if v := r.URL.Query().Get("status"); v != "" {
		status := api.ProposalStatus(v)
		filter.Status = &status
	}

	resp, err := s.lifecycle.ListProposals(r.Context(), filter)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) GetProposal(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetProposal"

	detail, err := s.lifecycle.GetProposal(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, detail)
}

func (s *Server) PostGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostGenerate"

	proposal, err := s.lifecycle.GenerateAndValidate(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.Proposal{"proposal": proposal})
}

func (s *Server) PostValidate(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostValidate"

	proposal, err := s.lifecycle.Validate(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]*api.Proposal{"proposal": proposal})
}

func (s *Server) PostVote(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostVote"

	var req castVoteRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	resp, err := s.lifecycle.CastVote(
		r.Context(),
		chi.URLParam(r, "proposalID"),
		actor(r),
		api.VoteDecision(req.Decision),
		req.Comments,
	)
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) PostPublish(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostPublish"

	resp, err := s.lifecycle.Publish(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) PostConfirmDeployment(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.PostConfirmDeployment"

	resp, err := s.lifecycle.ConfirmDeployed(r.Context(), chi.URLParam(r, "proposalID"), actor(r))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) GetValidations(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetValidations"

	resp, err := s.lifecycle.GetValidationHistory(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) GetDeployments(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetDeployments"

	resp, err := s.lifecycle.GetDeployments(r.Context(), chi.URLParam(r, "proposalID"))
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, resp)
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	const op = "internal.transport.http.GetStats"

	stats, err := s.lifecycle.GetStats(r.Context())
	if err != nil {
		s.handleServiceError(w, r, op, err)
		return
	}

	s.respond(w, http.StatusOK, stats)
}

// respond is a helper function to encode data to JSON and write it to the response.
// It centralizes setting the Content-Type header and writing the status code.
func (s *Server) respond(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("failed to encode response", sl.Err(err))
		}
	}
}

// respondError is a convenience wrapper around respond for sending simple error messages.
func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]string{"error": message})
}

// respondAPIError formats and sends a structured error response.
func (s *Server) respondAPIError(w http.ResponseWriter, code int, apiCode api.ErrorResponseErrorCode, message string) {
	errResp := api.ErrorResponse{
		Error: struct {
			Code    api.ErrorResponseErrorCode `json:"code"`
			Message string                     `json:"message"`
		}{
			Code:    apiCode,
			Message: message,
		},
	}
	s.respond(w, code, errResp)
}

// decodeAndValidate is a helper that deserializes a JSON request body into a struct
// and then runs validation checks on it.
func (s *Server) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := s.decode(r.Body, v); err != nil {
		return err
	}

	if err := validation.ValidateStruct(v); err != nil {
		return err
	}

	return nil
}

// decode is a helper function to decode a JSON request body.
func (s *Server) decode(body io.ReadCloser, v interface{}) error {
	defer body.Close()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidRequest, err)
	}

	return nil
}

// handleServiceError provides centralized error handling for all HTTP handlers.
// It logs the internal error and maps it to a user-friendly HTTP response.
func (s *Server) handleServiceError(w http.ResponseWriter, _ *http.Request, op string, err error) {
	log := s.log.With(slog.String("op", op))
	log.Error("service error occurred", sl.Err(err))

	var (
		stageConflictErr *apperrors.StageConflictError
		publishConfigErr *apperrors.PublishConfigError
		validationErr    *validation.ValidationError
		upstreamErr      *clients.StatusError
	)

	switch {
	case errors.As(err, &validationErr):
		s.respondAPIError(w, http.StatusBadRequest, api.CodeValidationError, validationErr.Error())
	case errors.Is(err, apperrors.ErrInvalidRequest):
		s.respondError(w, http.StatusBadRequest, "invalid request body")
	case errors.Is(err, apperrors.ErrValidation):
		s.respondAPIError(w, http.StatusBadRequest, api.CodeValidationError, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		s.respondAPIError(w, http.StatusNotFound, api.CodeNotFound, "resource not found")
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		s.respondAPIError(w, http.StatusUnauthorized, api.CodeNotAuthenticated, "acting identity is required")
	case errors.As(err, &stageConflictErr):
		s.respondAPIError(w, http.StatusConflict, api.CodeStageConflict, stageConflictErr.Error())
	case errors.Is(err, apperrors.ErrNothingToValidate):
		s.respondAPIError(w, http.StatusConflict, api.CodeNothingToValidate, "proposal has no generated code")
	case errors.As(err, &publishConfigErr):
		s.respondAPIError(w, http.StatusBadGateway, api.CodePublishNotConfigured, publishConfigErr.Error())
	case errors.As(err, &upstreamErr):
		s.respondAPIError(w, http.StatusBadGateway, api.CodeUpstreamFailed, "upstream service call failed")
	default:
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
