package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/smallbiznis/invoicebuilder/internal/invoice/domain"
	"github.com/smallbiznis/invoicebuilder/pkg/db"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) Insert(ctx context.Context, inv domain.Invoice) error {
	rec, items := toRecord(inv)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if db.IsDuplicateKeyErr(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, inv.InvoiceNumber)
	}
	return err
}

// Update replaces the stored invoice and its full item list.
func (r *repo) Update(ctx context.Context, inv domain.Invoice) error {
	rec, items := toRecord(inv)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&invoiceRecord{}).Where("id = ?", inv.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domain.ErrInvoiceNotFound
		}

		if err := tx.Model(&invoiceRecord{}).
			Where("id = ?", inv.ID).
			Select("*").
			Omit("id", "created_at").
			Updates(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&itemRecord{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
	if db.IsDuplicateKeyErr(err) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, inv.InvoiceNumber)
	}
	return err
}

func (r *repo) FindByID(ctx context.Context, id string) (*domain.Invoice, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repo) FindByShareToken(ctx context.Context, token string) (*domain.Invoice, error) {
	if token == "" {
		return nil, nil
	}
	return r.findOne(ctx, "share_token = ?", token)
}

func (r *repo) findOne(ctx context.Context, query string, arg any) (*domain.Invoice, error) {
	var rec invoiceRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var items []itemRecord
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", rec.ID).
		Order("position asc").
		Find(&items).Error; err != nil {
		return nil, err
	}

	inv := fromRecord(rec, items)
	return &inv, nil
}

// List returns every invoice, newest first.
func (r *repo) List(ctx context.Context) ([]domain.Invoice, error) {
	var records []invoiceRecord
	if err := r.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []domain.Invoice{}, nil
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	var items []itemRecord
	if err := r.db.WithContext(ctx).
		Where("invoice_id IN ?", ids).
		Order("invoice_id asc, position asc").
		Find(&items).Error; err != nil {
		return nil, err
	}
	byInvoice := make(map[string][]itemRecord, len(records))
	for _, item := range items {
		byInvoice[item.InvoiceID] = append(byInvoice[item.InvoiceID], item)
	}

	out := make([]domain.Invoice, 0, len(records))
	for _, rec := range records {
		out = append(out, fromRecord(rec, byInvoice[rec.ID]))
	}
	return out, nil
}

func (r *repo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&itemRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&invoiceRecord{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrInvoiceNotFound
		}
		return nil
	})
}

// NextSequence increments the named counter inside a transaction and returns
// the new value. The first call for a name returns 1.
func (r *repo) NextSequence(ctx context.Context, name string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&sequenceRecord{}).
			Where("name = ?", name).
			Update("value", gorm.Expr("value + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&sequenceRecord{Name: name, Value: 1}).Error; err != nil {
				return err
			}
			next = 1
			return nil
		}

		var rec sequenceRecord
		if err := tx.Where("name = ?", name).First(&rec).Error; err != nil {
			return err
		}
		next = rec.Value
		return nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// AutoMigrate creates or updates the invoice tables.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(Models()...)
}
