package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ClientStatus string

const (
	ClientActive    ClientStatus = "Active"
	ClientInactive  ClientStatus = "Inactive"
	ClientDelivered ClientStatus = "Delivered"
	ClientDeleted   ClientStatus = "Deleted"
)

var clientStatuses = []ClientStatus{ClientActive, ClientInactive, ClientDelivered, ClientDeleted}

// ParseClientStatus matches case-insensitively after trimming.
func ParseClientStatus(s string) (ClientStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range clientStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// CostInputs is the pricing block of a client. Only the pricing edit path writes it.
type CostInputs struct {
	ServiceCost            decimal.Decimal `gorm:"column:service_cost;type:decimal(18,2);not null;default:0" json:"serviceCost"`
	DomainCharged          decimal.Decimal `gorm:"column:domain_charged;type:decimal(18,2);not null;default:0" json:"domainCharged"`
	ActualDomainCost       decimal.Decimal `gorm:"column:actual_domain_cost;type:decimal(18,2);not null;default:0" json:"actualDomainCost"`
	ExtraFeatures          decimal.Decimal `gorm:"column:extra_features;type:decimal(18,2);not null;default:0" json:"extraFeatures"`
	ExtraProductionCharges decimal.Decimal `gorm:"column:extra_production_charges;type:decimal(18,2);not null;default:0" json:"extraProductionCharges"`
}

// HasNegative reports whether any cost input is below zero.
func (c CostInputs) HasNegative() bool {
	for _, v := range []decimal.Decimal{c.ServiceCost, c.DomainCharged, c.ActualDomainCost, c.ExtraFeatures, c.ExtraProductionCharges} {
		if v.IsNegative() {
			return true
		}
	}
	return false
}

// Equal compares amounts numerically (75 == 75.00).
func (c CostInputs) Equal(o CostInputs) bool {
	return c.ServiceCost.Equal(o.ServiceCost) &&
		c.DomainCharged.Equal(o.DomainCharged) &&
		c.ActualDomainCost.Equal(o.ActualDomainCost) &&
		c.ExtraFeatures.Equal(o.ExtraFeatures) &&
		c.ExtraProductionCharges.Equal(o.ExtraProductionCharges)
}

// DerivedFields is the materialized summary block. It is a cache of the
// calculator output and must never be edited by hand.
type DerivedFields struct {
	TotalValue decimal.Decimal `gorm:"column:total_value;type:decimal(18,2);not null;default:0" json:"totalValue"`
	TotalPaid  decimal.Decimal `gorm:"column:total_paid;type:decimal(18,2);not null;default:0" json:"totalPaid"`
	Pending    decimal.Decimal `gorm:"column:pending;type:decimal(18,2);not null;default:0" json:"pending"`
	Profit     decimal.Decimal `gorm:"column:profit;type:decimal(18,2);not null;default:0" json:"profit"`
}

// Totals is the summary block keyed by its JSON names, for audit entries.
func (d DerivedFields) Totals() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"totalValue": d.TotalValue,
		"totalPaid":  d.TotalPaid,
		"pending":    d.Pending,
		"profit":     d.Profit,
	}
}

type Client struct {
	ID             string       `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Name           string       `gorm:"column:name;not null" json:"name"`
	Status         ClientStatus `gorm:"column:status;type:varchar(20);not null;default:'Active'" json:"status"`
	CostInputs     `gorm:"embedded"`
	DerivedFields  `gorm:"embedded"`
	Version        int       `gorm:"column:version;not null;default:1" json:"version"`
	LastModifiedAt time.Time `gorm:"column:last_modified_at" json:"lastModifiedAt"`
	LastModifiedBy string    `gorm:"column:last_modified_by" json:"lastModifiedBy"`
	CreatedAt      time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Client) TableName() string {
	return "Clients"
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Status == "" {
		c.Status = ClientActive
	}
	return nil
}

// DerivedRow is one row of the batch write produced by a recalculation.
// Version is the client version the row was derived from.
type DerivedRow struct {
	ClientID string
	Version  int
	DerivedFields
}

// CostBlockWrite is the column set owned by the pricing edit path: the cost
// inputs and the totals it recomputes itself. Pending is derived by the store
// from its own total_paid.
type CostBlockWrite struct {
	Costs      CostInputs
	TotalValue decimal.Decimal
	Profit     decimal.Decimal
	Actor      string
	At         time.Time
}
