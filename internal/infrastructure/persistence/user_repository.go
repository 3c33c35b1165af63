package persistence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository stores seller accounts in users
type GormUserRepository struct {
	db *gorm.DB
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// profileColumns are what Update may write. The invoice counter belongs to
// CreateNumbered and UpdateNumbering.
var profileColumns = []string{
	"name", "email", "password_hash", "company_code", "vat_code", "address", "phone",
	"website", "bank_name", "bank_account", "signature_key", "invoice_series", "updated_at",
}

// Create reports a taken email as shared.ErrAlreadyExists
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	return err
}

func (r *GormUserRepository) Update(ctx context.Context, user *identity.User) error {
	row := models.UserModelFromDomain(user)
	return affected(r.db.WithContext(ctx).Model(row).Select(profileColumns).Updates(row), shared.ErrNotFound)
}

// UpdateNumbering locks the user row so no invoice can be numbered between
// the check against the issued numbers and the write.
func (r *GormUserRepository) UpdateNumbering(ctx context.Context, user *identity.User, next *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked models.UserModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "next_invoice_number").
			Where("id = ?", user.ID).
			Take(&locked).Error; err != nil {
			return missing(err, shared.ErrNotFound)
		}

		counter := locked.NextInvoiceNumber
		if next != nil {
			counter = *next
		}
		var issued int64
		if err := tx.Model(&models.InvoiceModel{}).
			Select("COALESCE(MAX(number), 0)").
			Where("user_id = ? AND series = ?", user.ID, user.Series()).
			Scan(&issued).Error; err != nil {
			return fmt.Errorf("read last invoice number: %w", err)
		}
		if counter <= issued {
			return identity.ErrNextInvoiceNumberUsed
		}

		columns := profileColumns
		if next != nil {
			columns = append(slices.Clone(profileColumns), "next_invoice_number")
		}
		row := models.UserModelFromDomain(user)
		row.NextInvoiceNumber = counter
		if err := tx.Model(row).Select(columns).Updates(row).Error; err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		user.NextInvoiceNumber = counter
		return nil
	})
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByEmail matches case-insensitively
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if email == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(ctx, "LOWER(email) = ?", strings.ToLower(email))
}

func (r *GormUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&n).Error
	return n > 0, err
}

func (r *GormUserRepository) first(ctx context.Context, cond string, arg any) (*identity.User, error) {
	var row models.UserModel
	if err := r.db.WithContext(ctx).Where(cond, arg).Take(&row).Error; err != nil {
		return nil, missing(err, shared.ErrNotFound)
	}
	return row.ToDomain(), nil
}
