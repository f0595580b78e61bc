package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
)

func (h *Handler) submitBuild(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.SubmitBuildRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	builderID := req.BuilderID
	if builderID == "" {
		builderID = actor.PrincipalID
	}

	build, err := h.service.SubmitBuild(r.Context(), actor, application.SubmitBuildInput{
		IdeaID:      chi.URLParam(r, "idea_id"),
		BuilderID:   builderID,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, build)
}

func (h *Handler) listBuilds(w http.ResponseWriter, r *http.Request) {
	builds, err := h.service.ListBuilds(r.Context(), chi.URLParam(r, "idea_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"builds": builds})
}

func (h *Handler) getBuild(w http.ResponseWriter, r *http.Request) {
	build, err := h.service.GetBuild(r.Context(), chi.URLParam(r, "build_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, build)
}

func (h *Handler) advanceBuild(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	build, err := h.service.AdvanceBuildToVoting(r.Context(), actor, chi.URLParam(r, "build_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, build)
}

func (h *Handler) castVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.CastVoteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	voterID := req.VoterID
	if voterID == "" {
		voterID = actor.PrincipalID
	}

	build, err := h.service.CastVote(r.Context(), actor, application.CastVoteInput{
		BuildID: chi.URLParam(r, "build_id"),
		VoterID: voterID,
		Approve: req.Approve,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.VoteTallyResponse{
		BuildID:      build.BuildID,
		ApproveCount: build.ApproveCount,
		RejectCount:  build.RejectCount,
		Status:       string(build.Status),
	})
}

func (h *Handler) resolveBuild(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	build, err := h.service.ResolveBuild(r.Context(), actor, chi.URLParam(r, "build_id"))
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, build)
}

func (h *Handler) reportExisting(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.ReportExistingRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	reporterID := req.ReporterID
	if reporterID == "" {
		reporterID = actor.PrincipalID
	}

	report, err := h.service.ReportExisting(r.Context(), actor, application.ReportExistingInput{
		IdeaID:     chi.URLParam(r, "idea_id"),
		ReporterID: reporterID,
		URL:        req.URL,
		Note:       req.Note,
	})
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusCreated, report)
}

func (h *Handler) resolveReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req struct {
		Accept bool `json:"accept"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	report, err := h.service.ResolveExistingReport(r.Context(), actor, chi.URLParam(r, "report_id"), req.Accept)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, report)
}
