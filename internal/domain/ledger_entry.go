package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LedgerType string

const (
	LedgerGiven      LedgerType = "given"
	LedgerSpent      LedgerType = "spent"
	LedgerInvestment LedgerType = "investment"
)

func ParseLedgerType(s string) (LedgerType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range []LedgerType{LedgerGiven, LedgerSpent, LedgerInvestment} {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}

// LedgerEntry is an immutable row of the internal team cash ledger.
type LedgerEntry struct {
	ID         string          `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	MemberID   string          `gorm:"column:member_id;type:varchar(64);index;not null" json:"memberId"`
	ClientID   *string         `gorm:"column:client_id;type:varchar(64);index" json:"clientId"`
	Date       time.Time       `gorm:"column:date;not null" json:"date"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Type       LedgerType      `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Reason     string          `gorm:"column:reason" json:"reason"`
	RecordedBy string          `gorm:"column:recorded_by" json:"recordedBy"`
	CreatedAt  time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (LedgerEntry) TableName() string {
	return "TeamLedger"
}

func (e *LedgerEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// ForClient reports whether the entry is attributed to the given client.
func (e LedgerEntry) ForClient(clientID string) bool {
	return e.ClientID != nil && *e.ClientID == clientID
}
