package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	// Keeping this sentinel in domain allows adapters to map it consistently to 404/NOT_FOUND.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized means no verified principal could be established for the request.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the verified principal does not match the principal named
	// in the request payload, or lacks the operator role. Distinct from
	// ErrUnauthorized so callers can tell "log in" apart from "not yours".
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict maps storage-level uniqueness violations; it is the authoritative
	// signal for duplicate settlement transaction references.
	ErrConflict = errors.New("conflict")

	ErrIdeaNotOpen    = errors.New("idea is not open")
	ErrAmountBelowMin = errors.New("amount below minimum contribution")
	ErrNothingToClaim = errors.New("nothing new to claim")

	ErrBuildNotVoting      = errors.New("build is not in voting")
	ErrBuildNotPending     = errors.New("build is not pending review")
	ErrVotingClosed        = errors.New("voting window closed")
	ErrVotingStillOpen     = errors.New("voting window still open")
	ErrSelfVote            = errors.New("builder may not vote on own build")
	ErrCooldownActive      = errors.New("builder resubmission cooldown active")
	ErrReportAlreadyClosed = errors.New("report already resolved")

	// ErrTxUnverified means the settlement ledger resolved the transaction but it
	// does not authorize the claimed principal/project, or could not be resolved
	// at all. Verification fails closed.
	ErrTxUnverified = errors.New("settlement transaction unverified")
	// ErrVerificationUnavailable means the settlement ledger could not be reached
	// in time. Retryable, and deliberately distinct from ErrTxUnverified so a
	// timeout is never reported as possible fraud.
	ErrVerificationUnavailable = errors.New("settlement verification unavailable, retry")
	// ErrLedgerDrift means the verified on-chain delta and the internal ledger's
	// eligible amount disagree beyond tolerance. No mutation may proceed.
	ErrLedgerDrift = errors.New("settlement delta does not match ledger-eligible amount")
)
