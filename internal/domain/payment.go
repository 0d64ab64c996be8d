package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentType string

const (
	PaymentCredit PaymentType = "Credit"
	PaymentDebit  PaymentType = "Debit"
	PaymentRefund PaymentType = "Refund"
)

type PaymentMode string

const (
	ModeCash         PaymentMode = "Cash"
	ModeOnline       PaymentMode = "Online"
	ModeBankTransfer PaymentMode = "Bank Transfer"
)

var paymentModes = []PaymentMode{ModeCash, ModeOnline, ModeBankTransfer}

// ParsePaymentType canonicalises the spelling of a known type. Unknown types
// are kept verbatim: they still count as credits when normalized.
func ParsePaymentType(s string) PaymentType {
	s = strings.TrimSpace(s)
	for _, t := range []PaymentType{PaymentCredit, PaymentDebit, PaymentRefund} {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return PaymentType(s)
}

func ParsePaymentMode(s string) (PaymentMode, bool) {
	s = strings.TrimSpace(s)
	for _, m := range paymentModes {
		if strings.EqualFold(s, string(m)) {
			return m, true
		}
	}
	return "", false
}

// Payment is an immutable row of the client payment log. Amount is always a
// non-negative magnitude; the sign comes from Type.
type Payment struct {
	ID         string          `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	ClientID   string          `gorm:"column:client_id;type:varchar(64);index;not null" json:"clientId"`
	Date       time.Time       `gorm:"column:date;not null" json:"date"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Type       PaymentType     `gorm:"column:type;type:varchar(20);not null" json:"type"`
	Mode       PaymentMode     `gorm:"column:mode;type:varchar(20)" json:"mode"`
	RecordedBy string          `gorm:"column:recorded_by" json:"recordedBy"`
	Note       string          `gorm:"column:note" json:"note,omitempty"`
	CreatedAt  time.Time       `gorm:"column:createdAt" json:"createdAt"`
}

func (Payment) TableName() string {
	return "Payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
