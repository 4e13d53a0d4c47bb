package models

import "time"

// Operations streams: coarse categories of workshop work.
const (
	StreamBodyWorks       = "body_works"
	StreamMechanicalWorks = "mechanical_works"
	StreamElectricalWorks = "electrical_works"
	StreamInteriorWorks   = "interior_works"
)

// Revenue streams.
const (
	RevenueWalkIn           = "walk_in"
	RevenueScheduledService = "scheduled_service"
	RevenueSpareParts       = "spare_parts"
)

// OperationsStreams lists every known operations stream.
var OperationsStreams = []string{
	StreamBodyWorks, StreamMechanicalWorks, StreamElectricalWorks, StreamInteriorWorks,
}

// RevenueStreams lists every known revenue stream.
var RevenueStreams = []string{
	RevenueWalkIn, RevenueScheduledService, RevenueSpareParts,
}

// ValidOperationsStream reports whether s names a known operations stream.
func ValidOperationsStream(s string) bool {
	for _, stream := range OperationsStreams {
		if s == stream {
			return true
		}
	}
	return false
}

// Job lifecycle statuses. Forward order:
// received -> assigned -> in_progress <-> awaiting_parts -> completed ->
// manager_review -> billing -> invoiced. cancelled is terminal and
// reachable from any non-terminal status.
const (
	JobReceived      = "received"
	JobAssigned      = "assigned"
	JobInProgress    = "in_progress"
	JobAwaitingParts = "awaiting_parts"
	JobCompleted     = "completed"
	JobManagerReview = "manager_review"
	JobBilling       = "billing"
	JobInvoiced      = "invoiced"
	JobCancelled     = "cancelled"
)

// ValidJobStatus reports whether s names a known job status.
func ValidJobStatus(s string) bool {
	switch s {
	case JobReceived, JobAssigned, JobInProgress, JobAwaitingParts,
		JobCompleted, JobManagerReview, JobBilling, JobInvoiced, JobCancelled:
		return true
	}
	return false
}

// TerminalJobStatus reports whether a job in status s accepts no further
// transitions.
func TerminalJobStatus(s string) bool {
	return s == JobInvoiced || s == JobCancelled
}

// Job is one vehicle-visit work order. Never deleted: cancellation is a
// terminal status, not a row removal.
type Job struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	VehicleID        uint   `gorm:"not null;index" json:"vehicle_id"`
	GarageID         uint   `gorm:"not null;index" json:"garage_id"`
	SiteManagerID    uint   `gorm:"not null" json:"site_manager_id"`
	TechnicianID     *uint  `gorm:"index" json:"technician_id"`
	OperationsStream string `gorm:"size:32;not null" json:"operations_stream"`
	RevenueStream    string `gorm:"size:32;not null" json:"revenue_stream"`
	Status           string `gorm:"size:32;not null;index;default:'received'" json:"status"`
	IssuesReported   string `gorm:"not null" json:"issues_reported"`
	WorkDone         string `json:"work_done"`
	ManagerNotes     string `json:"manager_notes"`
	InvoiceID        *uint  `json:"invoice_id"`

	Vehicle *Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AssignedAt  *time.Time `json:"assigned_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UpdatedAt   time.Time  `json:"-"`
}

// TaskAction is a reusable catalog template for a unit of billable labor,
// scoped to an operations stream. Mutated only by administrators.
type TaskAction struct {
	ID               uint    `gorm:"primaryKey" json:"id"`
	OperationsStream string  `gorm:"size:32;not null;index" json:"operations_stream"`
	Name             string  `gorm:"size:128;not null" json:"name"`
	Description      string  `json:"description"`
	DefaultLaborCost float64 `gorm:"not null;default:0" json:"default_labor_cost"`
	IsActive         bool    `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// JobTaskAction attaches a catalog task to a job. At most one row per
// (job, task action) pair.
type JobTaskAction struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	JobID        uint    `gorm:"not null;index:idx_job_task,unique,priority:1" json:"job_id"`
	TaskActionID uint    `gorm:"not null;index:idx_job_task,unique,priority:2" json:"task_action_id"`
	LaborCost    float64 `gorm:"not null;default:0" json:"labor_cost"`
	Notes        string  `json:"notes"`
	Completed    bool    `gorm:"not null;default:false" json:"completed"`

	TaskAction *TaskAction `gorm:"foreignKey:TaskActionID" json:"task_action,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}
