package domain

import "github.com/google/uuid"

type FraudVerdict string

const (
	VerdictLegit      FraudVerdict = "legit"
	VerdictFraudulent FraudVerdict = "fraudulent"
)

type ConflictOutcome string

const (
	OutcomeAccepted ConflictOutcome = "accepted"
	OutcomeRejected ConflictOutcome = "rejected"
)

type FinalStatus string

const (
	StatusSuccess  FinalStatus = "success"
	StatusRejected FinalStatus = "rejected"
)

const (
	RedirectConfirmation = "/confirmation"
	RedirectFailure      = "/order-failed"
)

// Result is the final state of an order. Fraud and conflict are
// independent dimensions; the caller only ever sees the combined status.
type Result struct {
	OrderID     uuid.UUID       `json:"order_id"`
	ResourceID  string          `json:"resource_id"`
	Fraud       FraudVerdict    `json:"fraud"`
	FraudReason string          `json:"fraud_reason,omitempty"`
	Conflict    ConflictOutcome `json:"conflict"`
	FinalStatus FinalStatus     `json:"final_status"`
}

// Finalize combines the two verdicts: success iff legit and accepted.
func Finalize(fraud FraudVerdict, conflict ConflictOutcome) FinalStatus {
	if fraud == VerdictLegit && conflict == OutcomeAccepted {
		return StatusSuccess
	}
	return StatusRejected
}

// RedirectTarget maps the combined status to the page the caller is sent
// to. Fraud and conflict rejections are indistinguishable to the end user.
func (r Result) RedirectTarget() string {
	if r.FinalStatus == StatusSuccess {
		return RedirectConfirmation
	}
	return RedirectFailure
}
