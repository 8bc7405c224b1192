package domain

import "time"

const AggregateType = "report"

const (
	EventReportCreated  = "ReportCreated"
	EventReportResolved = "ReportResolved"
	EventReportDeleted  = "ReportDeleted"
)

type ReportCreated struct {
	ReportID   string     `json:"report_id"`
	ReporterID string     `json:"reporter_id"`
	TargetType TargetType `json:"target_type"`
	TargetID   string     `json:"target_id"`
	Category   string     `json:"category"`
}

// ReportResolved drives catalog side effects: DelistProduct asks the catalog to
// take TargetID off sale.
type ReportResolved struct {
	ReportID      string       `json:"report_id"`
	Status        ReportStatus `json:"state"`
	TargetType    TargetType   `json:"target_type"`
	TargetID      string       `json:"target_id"`
	ActionTaken   string       `json:"action_taken"`
	ResolvedBy    string       `json:"resolved_by"`
	DelistProduct bool         `json:"delist_product"`
	At            time.Time    `json:"at"`
}

type ReportDeleted struct {
	ReportID  string    `json:"report_id"`
	DeletedBy string    `json:"deleted_by"`
	At        time.Time `json:"at"`
}
