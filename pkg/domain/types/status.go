package types

// Status is a workflow status. Which values are meaningful, and how they
// connect, depends on the EntityKind; see package lifecycle for the graphs.
type Status string

// Risk statuses
const (
	RiskStatusIdentified Status = "identificado"
	RiskStatusEvaluated  Status = "avaliado"
	RiskStatusTreating   Status = "em_tratamento"
	RiskStatusAccepted   Status = "aceito"
	RiskStatusMitigated  Status = "mitigado"
	RiskStatusClosed     Status = "encerrado"
)

// Assessment statuses
const (
	AssessmentStatusDraft       Status = "draft"
	AssessmentStatusInProgress  Status = "in_progress"
	AssessmentStatusUnderReview Status = "under_review"
	AssessmentStatusCompleted   Status = "completed"
	AssessmentStatusCancelled   Status = "cancelled"
)

// ActionPlan statuses
const (
	ActionPlanStatusPlanned    Status = "planejado"
	ActionPlanStatusApproved   Status = "aprovado"
	ActionPlanStatusInProgress Status = "em_andamento"
	ActionPlanStatusSuspended  Status = "suspenso"
	ActionPlanStatusCompleted  Status = "concluido"
	ActionPlanStatusCancelled  Status = "cancelado"
)

// VendorAssessment statuses, one per board column
const (
	VendorStatusDraft      Status = "draft"
	VendorStatusSent       Status = "sent"
	VendorStatusInProgress Status = "in_progress"
	VendorStatusCompleted  Status = "completed"
	VendorStatusApproved   Status = "approved"
	VendorStatusRejected   Status = "rejected"
	VendorStatusExpired    Status = "expired"
)

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
