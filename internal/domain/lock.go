package domain

import "time"

type LockStatus string

const (
	Locked   LockStatus = "LOCKED"
	Unlocked LockStatus = "UNLOCKED"
)

// RecalculationLock names the single lock record guarding batch recalculation.
const RecalculationLock = "recalculation"

// LockRecord is the singleton mutual-exclusion record of a recalculation domain.
// A missing record reads as UNLOCKED.
type LockRecord struct {
	Name      string     `gorm:"column:name;type:varchar(64);primaryKey" json:"name"`
	Status    LockStatus `gorm:"column:status;type:varchar(10);not null" json:"status"`
	Timestamp time.Time  `gorm:"column:timestamp" json:"timestamp"`
	Holder    string     `gorm:"column:holder" json:"holder"`
	// Revision increments on every database write; stores use it for compare-and-swap.
	Revision int64 `gorm:"column:revision;not null;default:0" json:"-"`
}

func (LockRecord) TableName() string {
	return "Locks"
}

func (r LockRecord) IsLocked() bool {
	return r.Status == Locked
}
