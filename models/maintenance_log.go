package models

import (
	"time"

	"gorm.io/datatypes"
)

// MaintenanceLog protokolliert einen Wartungslauf (Backup, Cleanup, Optimize,
// Health-Check) inklusive Ausgang der einzelnen Stages. Wird für Audits aufbewahrt.
type MaintenanceLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	JobType    string `json:"job_type" gorm:"index"` // scheduled, manual
	FinalState string `json:"final_state"`
	Fatal      bool   `json:"fatal" gorm:"default:false"`
	DurationMS int64  `json:"duration_ms"`

	TasksCompleted datatypes.JSON `json:"tasks_completed" gorm:"type:jsonb"`
	Errors         datatypes.JSON `json:"errors" gorm:"type:jsonb"`
	HealthReport   datatypes.JSON `json:"health_report,omitempty" gorm:"type:jsonb"`
}

// TableName gibt explizit den Tabellennamen an.
func (MaintenanceLog) TableName() string {
	return "maintenance_logs"
}
