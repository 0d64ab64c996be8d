package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Audit actions.
const (
	ActionClientCreated    = "CLIENT_CREATED"
	ActionPricingUpdated   = "PRICING_UPDATED"
	ActionStatusChanged    = "STATUS_CHANGED"
	ActionClientPurged     = "CLIENT_PURGED"
	ActionPaymentRecorded  = "PAYMENT_RECORDED"
	ActionLedgerRecorded   = "LEDGER_RECORDED"
	ActionRecalculation    = "RECALCULATION"
	ActionRecalculationErr = "RECALCULATION_FAILED"
)

// LogEntry is an append-only audit record.
type LogEntry struct {
	ID        string         `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"column:timestamp;index;not null" json:"timestamp"`
	Actor     string         `gorm:"column:actor;not null" json:"actor"`
	Action    string         `gorm:"column:action;type:varchar(40);not null" json:"action"`
	Details   datatypes.JSON `gorm:"column:details" json:"details"`
}

func (LogEntry) TableName() string {
	return "Logs"
}

func (l *LogEntry) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Timestamp.IsZero() {
		l.Timestamp = time.Now().UTC()
	}
	return nil
}

// NewLogEntry builds an entry with details marshalled to JSON.
func NewLogEntry(at time.Time, actor, action string, details interface{}) *LogEntry {
	b, err := json.Marshal(details)
	if err != nil || details == nil {
		b = []byte("{}")
	}
	return &LogEntry{
		Timestamp: at,
		Actor:     actor,
		Action:    action,
		Details:   datatypes.JSON(b),
	}
}
