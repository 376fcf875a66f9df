package service

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/agent-associations/pkg/app/errors"
	apphttp "github.com/chainsafe/agent-associations/pkg/app/http"
)

const maxBodySize = 1 << 20

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers HTTP endpoints for the association service on the given chi router
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Route("/v1/associations", func(r chi.Router) {
		r.Post("/", apphttp.HandleError(h.initiate))
		r.Post("/approve", apphttp.HandleError(h.approve))
		r.Get("/inbox/{did}", apphttp.HandleError(h.inbox))
		r.Get("/{id}", apphttp.HandleError(h.get))
	})
}

func (h *HTTP) initiate(w http.ResponseWriter, r *http.Request) error {
	var req InitiateRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		return err
	}

	return h.respond(w, http.StatusCreated, resp)
}

func (h *HTTP) approve(w http.ResponseWriter, r *http.Request) error {
	var req ApproveRequest
	if err := decodeBody(r, &req); err != nil {
		return err
	}

	resp, err := h.service.Approve(r.Context(), &req)
	if err != nil {
		return err
	}

	return h.respond(w, http.StatusOK, resp)
}

func (h *HTTP) get(w http.ResponseWriter, r *http.Request) error {
	snap, err := h.service.GetHandshake(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	return h.respond(w, http.StatusOK, snap)
}

func (h *HTTP) inbox(w http.ResponseWriter, r *http.Request) error {
	did, err := url.PathUnescape(chi.URLParam(r, "did"))
	if err != nil {
		return apperrors.BadRequestError(err, "invalid did")
	}

	msgs, err := h.service.Inbox(r.Context(), did)
	if err != nil {
		return err
	}

	return h.respond(w, http.StatusOK, map[string]any{"messages": msgs})
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	return nil
}

// respond never fails the request: once the status line is out there is
// nothing left to report to the client.
func (h *HTTP) respond(w http.ResponseWriter, status int, data any) error {
	if err := apphttp.WriteJSON(w, status, data); err != nil {
		h.logger.Debug("failed to write response", zap.Error(err))
	}
	return nil
}
