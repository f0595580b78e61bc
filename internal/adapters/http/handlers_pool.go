package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

func (h *Handler) createIdea(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.CreateIdeaRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	idea, err := h.service.CreateIdea(r.Context(), actor, application.CreateIdeaInput{
		Title:         req.Title,
		Description:   req.Description,
		SourcePostRef: req.SourcePostRef,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, idea)
}

func (h *Handler) getIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := h.service.GetIdea(r.Context(), chi.URLParam(r, "idea_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, idea)
}

func (h *Handler) listIdeas(w http.ResponseWriter, r *http.Request) {
	status := domain.IdeaStatus(r.URL.Query().Get("status"))
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	offset := parseIntDefault(r.URL.Query().Get("offset"), 0)

	ideas, err := h.service.ListIdeas(r.Context(), status, limit, offset)
	if err != nil {
		statusCode, code, msg := mapDomainError(err)
		writeError(w, statusCode, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"ideas": ideas})
}

func (h *Handler) contribute(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.ContributeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid amount")
		return
	}
	principalID := req.PrincipalID
	if principalID == "" {
		principalID = actor.PrincipalID
	}

	out, err := h.service.Contribute(r.Context(), actor, application.ContributeInput{
		IdeaID:        chi.URLParam(r, "idea_id"),
		PrincipalID:   principalID,
		Amount:        amount,
		ExternalTxRef: req.ExternalTxRef,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, contracts.ContributeResponse{
		ContributionID: out.ContributionID,
		NewBalance:     out.NewBalance.String(),
		ModeChanged:    out.ModeChanged,
		IdeaStatus:     string(out.IdeaStatus),
	})
}

func (h *Handler) refundEligibility(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	principalID := r.URL.Query().Get("principal_id")
	if principalID == "" {
		principalID = actor.PrincipalID
	}

	eligibility, err := h.service.RefundPreview(r.Context(), actor, chi.URLParam(r, "idea_id"), principalID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	resp := contracts.RefundEligibilityResponse{
		Eligible:          eligibility.Eligible,
		TotalOutstanding:  eligibility.TotalOutstanding.String(),
		DaysUntilEligible: eligibility.DaysUntilEligible,
	}
	if !eligibility.LatestOutstandingAt.IsZero() {
		resp.LatestOutstandingAt = eligibility.LatestOutstandingAt.UTC().Format(timeFormat)
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getPrincipal(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	principal, err := h.service.GetPrincipal(r.Context(), actor, chi.URLParam(r, "principal_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, principal)
}
