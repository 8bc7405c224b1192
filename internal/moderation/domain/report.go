package domain

import (
	"time"

	"github.com/dmehra2102/agro-marketplace/pkg/apperr"
)

type ReportStatus string

const (
	StatusPending  ReportStatus = "pendiente"
	StatusResolved ReportStatus = "resuelto"
	StatusRejected ReportStatus = "rechazado"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusRejected:
		return true
	}
	return false
}

type TargetType string

const (
	TargetProduct TargetType = "producto"
	TargetUser    TargetType = "usuario"
)

func (t TargetType) Valid() bool {
	return t == TargetProduct || t == TargetUser
}

const DefaultRejectionText = "Reporte revisado: no se encontraron infracciones"

type Report struct {
	ID          string       `json:"id"`
	ReporterID  string       `json:"reporter_id"`
	TargetType  TargetType   `json:"target_type"`
	TargetID    string       `json:"target_id"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Status      ReportStatus `json:"state"`
	ActionTaken string       `json:"action_taken,omitempty"`
	ResolvedBy  string       `json:"resolved_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

type NewReport struct {
	ReporterID  string
	TargetType  TargetType
	TargetID    string
	Category    string
	Description string
}

func (n NewReport) Validate() error {
	switch {
	case n.ReporterID == "":
		return apperr.New(apperr.CodeInvalidArgument, "reporter is required")
	case !n.TargetType.Valid():
		return apperr.Newf(apperr.CodeInvalidArgument, "unknown target type %q", n.TargetType)
	case n.TargetID == "":
		return apperr.New(apperr.CodeInvalidArgument, "target id is required")
	case n.Category == "":
		return apperr.New(apperr.CodeInvalidArgument, "category is required")
	}
	return nil
}

func Open(id string, n NewReport, now time.Time) Report {
	return Report{
		ID:          id,
		ReporterID:  n.ReporterID,
		TargetType:  n.TargetType,
		TargetID:    n.TargetID,
		Category:    n.Category,
		Description: n.Description,
		Status:      StatusPending,
		CreatedAt:   now.UTC(),
	}
}

// Resolution moves a pending report to a terminal state. It is applied as a
// compare-and-set on the pending state.
type Resolution struct {
	ReportID    string
	To          ReportStatus
	ActionTaken string
	ResolvedBy  string
	At          time.Time
}

func (r Report) Resolve(to ReportStatus, actionTaken, adminID string, at time.Time) (Resolution, error) {
	if to != StatusResolved && to != StatusRejected {
		return Resolution{}, apperr.Newf(apperr.CodeInvalidTransition, "reports can only be resolved or rejected, got %q", to)
	}
	if r.Status != StatusPending {
		return Resolution{}, apperr.Newf(apperr.CodeInvalidTransition, "report already %s", r.Status)
	}
	if actionTaken == "" {
		if to == StatusResolved {
			return Resolution{}, apperr.New(apperr.CodeInvalidArgument, "action taken is required to resolve a report")
		}
		actionTaken = DefaultRejectionText
	}
	return Resolution{ReportID: r.ID, To: to, ActionTaken: actionTaken, ResolvedBy: adminID, At: at.UTC()}, nil
}

func (r Report) Apply(res Resolution) Report {
	r.Status = res.To
	r.ActionTaken = res.ActionTaken
	r.ResolvedBy = res.ResolvedBy
	at := res.At
	r.ResolvedAt = &at
	return r
}

// Deletable keeps pending and rejected reports as audit trail.
func (r Report) Deletable() bool {
	return r.Status == StatusResolved
}

type ListFilter struct {
	Status     ReportStatus
	TargetType TargetType
}
