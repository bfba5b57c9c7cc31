package models

import (
	"time"

	"gorm.io/gorm"
)

// ServiceVisitStatus tracks an installation/maintenance appointment.
type ServiceVisitStatus string

const (
	VisitStatusRequested ServiceVisitStatus = "requested"
	VisitStatusScheduled ServiceVisitStatus = "scheduled"
	VisitStatusCompleted ServiceVisitStatus = "completed"
	VisitStatusCancelled ServiceVisitStatus = "cancelled"
)

// ServiceVisitType distinguishes what the technician comes for.
type ServiceVisitType string

const (
	VisitTypeInstallation ServiceVisitType = "installation"
	VisitTypeMaintenance  ServiceVisitType = "maintenance"
	VisitTypeRepair       ServiceVisitType = "repair"
)

// ServiceVisit is a technician appointment at a customer site.
// Completed visits are the trigger for automatic coin awards
// (see workers/visit_award_worker.go).
type ServiceVisit struct {
	ID          string             `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string             `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderID     *string            `gorm:"type:uuid;index" json:"order_id,omitempty"` // set for installations
	Type        ServiceVisitType   `gorm:"size:16;not null" json:"type"`
	Status      ServiceVisitStatus `gorm:"size:16;not null;default:'requested';index" json:"status"`
	Address     string             `gorm:"type:text" json:"address"`
	ScheduledAt *time.Time         `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
	Technician  string             `json:"technician,omitempty"`
	Note        string             `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	DeletedAt   gorm.DeletedAt     `gorm:"index" json:"-"`
}
