package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/client"
	"github.com/invoicer/backend/internal/domain/invoice"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormClientRepository implements client.Repository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindAllForUser returns the user's clients ordered by name
func (r *GormClientRepository) FindAllForUser(ctx context.Context, userID uuid.UUID) ([]client.Client, error) {
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).
		Scopes(ownedBy("clients", userID)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return clientsToDomain(rows), nil
}

// FindByIDForUser finds a client of the user
func (r *GormClientRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*client.Client, error) {
	var model models.ClientModel
	err := r.db.WithContext(ctx).
		Scopes(ownedBy("clients", userID)).
		Where("id = ?", id).
		Take(&model).Error
	if err != nil {
		return nil, missing(err, client.ErrNotFound)
	}
	return model.ToDomain(), nil
}

// FindLatestForUser returns the most recently created clients
func (r *GormClientRepository) FindLatestForUser(ctx context.Context, userID uuid.UUID, limit int) ([]client.Client, error) {
	var rows []models.ClientModel
	if err := r.db.WithContext(ctx).
		Scopes(ownedBy("clients", userID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return clientsToDomain(rows), nil
}

// Save inserts or updates a client
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(c)).Error
}

// DeleteForUser deletes a client that has no invoices. An invoice inserted
// after the count still trips the foreign key and reads as ErrHasInvoices.
func (r *GormClientRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.ClientModel
		err := tx.Scopes(ownedBy("clients", userID)).
			Where("id = ?", id).
			Take(&model).Error
		if err != nil {
			return missing(err, client.ErrNotFound)
		}

		var invoices int64
		if err := tx.Model(&models.InvoiceModel{}).
			Where("client_id = ?", id).
			Count(&invoices).Error; err != nil {
			return fmt.Errorf("count client invoices: %w", err)
		}
		if invoices > 0 {
			return client.ErrHasInvoices
		}

		err = tx.Delete(&models.ClientModel{}, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return client.ErrHasInvoices
		case err != nil:
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
}

// clientStatsRow is the scan target of StatsForUser
type clientStatsRow struct {
	ClientID     uuid.UUID
	Name         string
	InvoiceCount int64
	TotalAmount  decimal.Decimal
	UnpaidAmount decimal.Decimal
}

// StatsForUser returns invoice count and amounts per client, largest total first
func (r *GormClientRepository) StatsForUser(ctx context.Context, userID uuid.UUID) ([]client.Stats, error) {
	var rows []clientStatsRow
	err := r.db.WithContext(ctx).
		Table("clients").
		Select(`clients.id AS client_id, clients.name AS name,
			COUNT(invoices.id) AS invoice_count,
			COALESCE(SUM(invoices.total), 0) AS total_amount,
			COALESCE(SUM(CASE WHEN invoices.status <> ? THEN invoices.total ELSE 0 END), 0) AS unpaid_amount`,
			string(invoice.StatusPaid)).
		Joins("LEFT JOIN invoices ON invoices.client_id = clients.id").
		Scopes(ownedBy("clients", userID)).
		Group("clients.id, clients.name").
		Order("total_amount DESC, clients.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make([]client.Stats, len(rows))
	for i, row := range rows {
		stats[i] = client.Stats{
			ClientID:     row.ClientID,
			Name:         row.Name,
			InvoiceCount: row.InvoiceCount,
			TotalAmount:  row.TotalAmount,
			UnpaidAmount: row.UnpaidAmount,
		}
	}
	return stats, nil
}

func clientsToDomain(rows []models.ClientModel) []client.Client {
	out := make([]client.Client, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}
