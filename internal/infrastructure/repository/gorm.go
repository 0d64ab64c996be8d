// Package repository is the GORM-backed persistence for clients and their
// append-only payment, ledger and audit logs.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"clientbook-backend/internal/domain"

	"gorm.io/gorm"
)

// DefaultLogLimit bounds ReadLogs when the caller passes no limit.
const DefaultLogLimit = 200

type Gorm struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Gorm {
	return &Gorm{DB: db}
}

func (r *Gorm) ReadClients(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	err := r.DB.WithContext(ctx).Order(`"createdAt" ASC`).Find(&clients).Error
	return clients, err
}

func (r *Gorm) ReadPayments(ctx context.Context) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.DB.WithContext(ctx).Order("date ASC").Find(&payments).Error
	return payments, err
}

func (r *Gorm) ReadLedgerEntries(ctx context.Context) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := r.DB.WithContext(ctx).Order("date ASC").Find(&entries).Error
	return entries, err
}

// ReadLogs returns the most recent entries first.
func (r *Gorm) ReadLogs(ctx context.Context, limit int) ([]domain.LogEntry, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	var logs []domain.LogEntry
	err := r.DB.WithContext(ctx).Order(`"timestamp" DESC`).Limit(limit).Find(&logs).Error
	return logs, err
}

func (r *Gorm) FindClient(ctx context.Context, id string) (*domain.Client, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrClientNotFound
	}
	var c domain.Client
	err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrClientNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Gorm) CreateClient(ctx context.Context, c *domain.Client) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

// WriteClientCostBlock persists the cost block iff the stored version still
// equals expectedVersion. Pending is taken against the stored total_paid so
// the payment side of the summary block is never overwritten here.
func (r *Gorm) WriteClientCostBlock(ctx context.Context, clientID string, expectedVersion int, w domain.CostBlockWrite) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ? AND version = ?", clientID, expectedVersion).
		Updates(map[string]interface{}{
			"service_cost":             w.Costs.ServiceCost,
			"domain_charged":           w.Costs.DomainCharged,
			"actual_domain_cost":       w.Costs.ActualDomainCost,
			"extra_features":           w.Costs.ExtraFeatures,
			"extra_production_charges": w.Costs.ExtraProductionCharges,
			"total_value":              w.TotalValue,
			"profit":                   w.Profit,
			"pending":                  gorm.Expr("? - total_paid", w.TotalValue),
			"version":                  gorm.Expr("version + 1"),
			"last_modified_at":         w.At,
			"last_modified_by":         w.Actor,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// WriteDerivedFieldBatch writes every row in one transaction; either all rows
// land or none do. A row whose client was re-priced after it was read (version
// moved) only gets its payment-owned columns, so the editor's totalValue and
// profit survive. Rows for clients deleted in the meantime are skipped.
// It returns the number of clients written.
func (r *Gorm) WriteDerivedFieldBatch(ctx context.Context, rows []domain.DerivedRow) (int, error) {
	written := 0
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			res := tx.Model(&domain.Client{}).
				Where("id = ? AND version = ?", row.ClientID, row.Version).
				Updates(map[string]interface{}{
					"total_value": row.TotalValue,
					"total_paid":  row.TotalPaid,
					"pending":     row.Pending,
					"profit":      row.Profit,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				written++
				continue
			}
			res = tx.Model(&domain.Client{}).
				Where("id = ?", row.ClientID).
				Updates(map[string]interface{}{
					"total_paid": row.TotalPaid,
					"pending":    gorm.Expr("total_value - ?", row.TotalPaid),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 1 {
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (r *Gorm) UpdateStatus(ctx context.Context, clientID string, status domain.ClientStatus, actor string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&domain.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]interface{}{
			"status":           status,
			"last_modified_at": at,
			"last_modified_by": actor,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// HardDelete removes the client row only. Payments and ledger rows are kept.
func (r *Gorm) HardDelete(ctx context.Context, clientID string) error {
	res := r.DB.WithContext(ctx).Where("id = ?", clientID).Delete(&domain.Client{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

func (r *Gorm) AppendLog(ctx context.Context, entry *domain.LogEntry) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

func (r *Gorm) AppendPayment(ctx context.Context, p *domain.Payment) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *Gorm) AppendLedgerEntry(ctx context.Context, e *domain.LedgerEntry) error {
	return r.DB.WithContext(ctx).Create(e).Error
}
