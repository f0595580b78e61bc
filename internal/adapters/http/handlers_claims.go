package http

import (
	"net/http"
	"time"

	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/contracts"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

func (h *Handler) signRefundClaim(w http.ResponseWriter, r *http.Request) {
	h.signClaim(w, r, domain.ClaimTypeRefund)
}

func (h *Handler) signRewardClaim(w http.ResponseWriter, r *http.Request) {
	h.signClaim(w, r, domain.ClaimTypeReward)
}

func (h *Handler) signClaim(w http.ResponseWriter, r *http.Request, claimType domain.ClaimType) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.SignClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	principalID := req.PrincipalID
	if principalID == "" {
		principalID = actor.PrincipalID
	}

	input := application.SignClaimInput{
		PrincipalID:      principalID,
		RecipientAddress: req.RecipientAddress,
		TTL:              time.Duration(req.TTLSeconds) * time.Second,
	}

	var (
		auth domain.ClaimAuthorization
		err  error
	)
	if claimType == domain.ClaimTypeRefund {
		auth, err = h.service.SignRefundClaim(r.Context(), actor, input)
	} else {
		auth, err = h.service.SignRewardClaim(r.Context(), actor, input)
	}
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, renderAuthorization(auth))
}

func (h *Handler) recordRefundClaim(w http.ResponseWriter, r *http.Request) {
	h.recordClaim(w, r, domain.ClaimTypeRefund)
}

func (h *Handler) recordRewardClaim(w http.ResponseWriter, r *http.Request) {
	h.recordClaim(w, r, domain.ClaimTypeReward)
}

func (h *Handler) recordClaim(w http.ResponseWriter, r *http.Request, claimType domain.ClaimType) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req contracts.RecordClaimRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	principalID := req.PrincipalID
	if principalID == "" {
		principalID = actor.PrincipalID
	}

	input := application.RecordClaimInput{
		PrincipalID: principalID,
		TxRef:       req.TxRef,
	}

	var (
		out application.RecordClaimOutput
		err error
	)
	if claimType == domain.ClaimTypeRefund {
		out, err = h.service.RecordRefundClaim(r.Context(), actor, input)
	} else {
		out, err = h.service.RecordRewardClaim(r.Context(), actor, input)
	}
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}

	resp := contracts.RecordClaimResponse{
		Accepted:    out.Accepted,
		AlreadyUsed: out.AlreadyUsed,
	}
	if !out.Amount.IsZero() {
		resp.Amount = out.Amount.String()
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) repairClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	var req struct {
		TxRef     string `json:"tx_ref"`
		ClaimType string `json:"claim_type"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.service.RepairClaim(r.Context(), actor, req.TxRef, domain.ClaimType(req.ClaimType)); err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeMessage(w, http.StatusOK, "claim reconciled")
}

func (h *Handler) rewardPreview(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
		return
	}
	principalID := r.URL.Query().Get("principal_id")
	if principalID == "" {
		principalID = actor.PrincipalID
	}

	totals, err := h.service.RewardPreview(r.Context(), actor, principalID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, contracts.RewardPreviewResponse{
		BuilderShare:   totals.BuilderShare.String(),
		SubmitterShare: totals.SubmitterShare.String(),
		Total:          totals.Total.String(),
	})
}

func renderAuthorization(auth domain.ClaimAuthorization) contracts.ClaimAuthorizationResponse {
	return contracts.ClaimAuthorizationResponse{
		Project:          auth.Project,
		ClaimType:        string(auth.ClaimType),
		PrincipalID:      auth.PrincipalID,
		RecipientAddress: auth.RecipientAddress,
		CumulativeAmount: auth.CumulativeAmount.String(),
		Delta:            auth.Delta.String(),
		Deadline:         auth.Deadline.UTC().Format(timeFormat),
		Signature:        auth.Signature,
	}
}
