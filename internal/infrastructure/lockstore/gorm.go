package lockstore

import (
	"context"
	"errors"

	"clientbook-backend/internal/application/locking"
	"clientbook-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Gorm stores the lock record as a row of the Locks table.
type Gorm struct {
	DB *gorm.DB
}

func (g *Gorm) ReadLock(ctx context.Context) (domain.LockRecord, error) {
	var rec domain.LockRecord
	err := g.DB.WithContext(ctx).Where("name = ?", domain.RecalculationLock).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return unlocked(), nil
	}
	return rec, err
}

func (g *Gorm) WriteLock(ctx context.Context, rec domain.LockRecord) error {
	rec.Name = domain.RecalculationLock
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.LockRecord{}).
			Where("name = ?", rec.Name).
			Updates(map[string]interface{}{
				"status":    rec.Status,
				"timestamp": rec.Timestamp,
				"holder":    rec.Holder,
				"revision":  gorm.Expr("revision + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		rec.Revision = 1
		return tx.Create(&rec).Error
	})
}

// SwapLock updates the row only while its revision is unchanged. A record
// that was never written (revision 0) is inserted if still absent.
func (g *Gorm) SwapLock(ctx context.Context, prev, next domain.LockRecord) (bool, error) {
	next.Name = domain.RecalculationLock
	db := g.DB.WithContext(ctx)
	if prev.Revision == 0 {
		next.Revision = 1
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&next)
		return res.RowsAffected == 1, res.Error
	}
	res := db.Model(&domain.LockRecord{}).
		Where("name = ? AND revision = ?", next.Name, prev.Revision).
		Updates(map[string]interface{}{
			"status":    next.Status,
			"timestamp": next.Timestamp,
			"holder":    next.Holder,
			"revision":  gorm.Expr("revision + 1"),
		})
	return res.RowsAffected == 1, res.Error
}

var _ locking.SwapStore = (*Gorm)(nil)
