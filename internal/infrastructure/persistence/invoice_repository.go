package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceRepository implements invoice.Repository using GORM.
// It is the only writer of users.next_invoice_number during invoice creation.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// numberingRow is the owner's counter state read back after reservation
type numberingRow struct {
	InvoiceSeries     string
	NextInvoiceNumber int64
}

// CreateNumbered reserves the owner's next number with an atomic increment,
// then inserts the header and items. The row lock taken by the UPDATE
// serializes concurrent creates of the same owner until commit.
func (r *GormInvoiceRepository) CreateNumbered(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.UserModel{}).
			Where("id = ?", inv.UserID).
			UpdateColumn("next_invoice_number", gorm.Expr("next_invoice_number + 1"))
		if result.Error != nil {
			return fmt.Errorf("reserve invoice number: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		var counter numberingRow
		if err := tx.Model(&models.UserModel{}).
			Select("invoice_series, next_invoice_number").
			Where("id = ?", inv.UserID).
			Take(&counter).Error; err != nil {
			return fmt.Errorf("read invoice counter: %w", err)
		}

		series := counter.InvoiceSeries
		if series == "" {
			series = identity.DefaultInvoiceSeries
		}
		inv.AssignNumber(series, counter.NextInvoiceNumber-1)

		if err := tx.Omit(clause.Associations).
			Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
			return fmt.Errorf("insert invoice: %w", err)
		}
		return insertItems(tx, inv)
	})
}

// Replace overwrites the header and swaps the whole item set
func (r *GormInvoiceRepository) Replace(ctx context.Context, inv *invoice.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.InvoiceModel{}).
			Scopes(ownedBy("invoices", inv.UserID)).
			Where("id = ?", inv.ID).
			Updates(map[string]any{
				"client_id":    inv.ClientID,
				"invoice_date": inv.InvoiceDate,
				"due_date":     inv.DueDate,
				"notes":        inv.Notes,
				"total":        inv.Total,
				"updated_at":   inv.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("update invoice: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return invoice.ErrNotFound
		}

		if err := tx.Where("invoice_id = ?", inv.ID).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		return insertItems(tx, inv)
	})
}

func insertItems(tx *gorm.DB, inv *invoice.Invoice) error {
	items := models.ItemModelsFromDomain(inv, inv.UpdatedAt)
	if len(items) == 0 {
		return nil
	}
	if err := tx.Create(&items).Error; err != nil {
		return fmt.Errorf("insert invoice items: %w", err)
	}
	return nil
}

// UpdateStatus sets the status of an owned invoice
func (r *GormInvoiceRepository) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status invoice.Status) error {
	return affected(r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Scopes(ownedBy("invoices", userID)).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}), invoice.ErrNotFound)
}

// DeleteForUser removes the items and then the header of an owned invoice
func (r *GormInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.InvoiceModel{}).
			Scopes(ownedBy("invoices", userID)).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return fmt.Errorf("find invoice: %w", err)
		}
		if count == 0 {
			return invoice.ErrNotFound
		}

		if err := tx.Where("invoice_id = ?", id).
			Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return fmt.Errorf("delete invoice items: %w", err)
		}
		if err := tx.Delete(&models.InvoiceModel{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete invoice: %w", err)
		}
		return nil
	})
}

// FindByIDForUser loads an owned invoice with its client and items
func (r *GormInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	var model models.InvoiceModel
	err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(ownedBy("invoices", userID)).
		Where("invoices.id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, missing(err, invoice.ErrNotFound)
	}
	return model.ToDomain(), nil
}

func (r *GormInvoiceRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

// List returns one page of the user's invoices. The owner scope is applied
// before the optional month, client and status filters.
func (r *GormInvoiceRepository) List(ctx context.Context, userID uuid.UUID, filter invoice.ListFilter) ([]invoice.Invoice, int64, error) {
	filter.Normalize()

	query := ownedBy("invoices", userID)(r.db.WithContext(ctx).Model(&models.InvoiceModel{}))
	query = r.applyFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order, joinClients := invoiceOrder(filter.OrderBy, filter.OrderDir)
	if joinClients {
		query = query.Joins("LEFT JOIN clients ON clients.id = invoices.client_id")
	}

	var rows []models.InvoiceModel
	if err := query.
		Select("invoices.*").
		Preload("Client").
		Clauses(order).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return invoicesToDomain(rows), total, nil
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter invoice.ListFilter) *gorm.DB {
	if filter.Month != nil {
		query = query.Where("invoices.invoice_date >= ? AND invoices.invoice_date < ?", filter.Month.From, filter.Month.To)
	}
	if filter.ClientID != nil {
		query = query.Where("invoices.client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("invoices.status = ?", string(*filter.Status))
	}
	return query
}

// InvoiceDates returns the invoice date of every invoice of the user
func (r *GormInvoiceRepository) InvoiceDates(ctx context.Context, userID uuid.UUID) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Scopes(ownedBy("invoices", userID)).
		Pluck("invoice_date", &dates).Error; err != nil {
		return nil, err
	}
	return dates, nil
}

// FindUnpaid returns unpaid invoices with clients, earliest due date first
func (r *GormInvoiceRepository) FindUnpaid(ctx context.Context, userID uuid.UUID) ([]invoice.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Scopes(ownedBy("invoices", userID)).
		Where("status <> ?", string(invoice.StatusPaid)).
		Order("due_date ASC").
		Order("number ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// FindLatest returns the most recently created invoices with clients
func (r *GormInvoiceRepository) FindLatest(ctx context.Context, userID uuid.UUID, limit int) ([]invoice.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("Client").
		Scopes(ownedBy("invoices", userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return invoicesToDomain(rows), nil
}

// AmountsBetween returns date and total of invoices dated within [from, to]
func (r *GormInvoiceRepository) AmountsBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]invoice.Amount, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Select("invoice_date", "total").
		Scopes(ownedBy("invoices", userID)).
		Where("invoice_date >= ? AND invoice_date <= ?", from, to).
		Order("invoice_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	amounts := make([]invoice.Amount, len(rows))
	for i, row := range rows {
		amounts[i] = invoice.Amount{InvoiceDate: row.InvoiceDate.UTC(), Total: row.Total}
	}
	return amounts, nil
}

func invoicesToDomain(rows []models.InvoiceModel) []invoice.Invoice {
	out := make([]invoice.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
