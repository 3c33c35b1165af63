package identity

import (
	"net/mail"
	"strings"

	"github.com/invoicer/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

// DefaultInvoiceSeries is used when a seller has not configured a series
const DefaultInvoiceSeries = "INV"

// ErrNextInvoiceNumberUsed rejects a counter that would hand out a number
// already issued in the seller's series
var ErrNextInvoiceNumberUsed = shared.NewDomainError("INVALID_NEXT_INVOICE_NUMBER", "Next invoice number must be greater than the last issued invoice number")

// User represents a seller account and its invoice profile.
// It is the aggregate root for identity and numbering state.
type User struct {
	shared.BaseEntity
	Name              string
	Email             string
	PasswordHash      string
	CompanyCode       string
	VATCode           string
	Address           string
	Phone             string
	Website           string
	BankName          string
	BankAccount       string
	SignatureKey      string // object storage key of the signature image
	InvoiceSeries     string
	NextInvoiceNumber int64
}

// NewUser creates a new seller with a hashed password
func NewUser(name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseEntity:        shared.NewBaseEntity(),
		Name:              name,
		Email:             email,
		PasswordHash:      passwordHash,
		NextInvoiceNumber: 1,
	}, nil
}

// ProfileUpdate is the allow-listed set of fields a seller may change on their profile
type ProfileUpdate struct {
	Name              string
	CompanyCode       string
	VATCode           string
	Address           string
	Phone             string
	Website           string
	BankName          string
	BankAccount       string
	InvoiceSeries     string
	NextInvoiceNumber *int64
}

// UpdateProfile applies a profile update after validating every field
func (u *User) UpdateProfile(p ProfileUpdate) error {
	name := strings.TrimSpace(p.Name)
	if err := validateName(name); err != nil {
		return err
	}
	optional := map[string]string{
		"company_code": p.CompanyCode,
		"vat_code":     p.VATCode,
		"address":      p.Address,
		"phone":        p.Phone,
		"website":      p.Website,
		"bank_name":    p.BankName,
		"bank_account": p.BankAccount,
	}
	for field, v := range optional {
		if len(v) > 255 {
			return shared.NewDomainError("INVALID_"+strings.ToUpper(field), field+" cannot exceed 255 characters")
		}
	}
	series := strings.TrimSpace(p.InvoiceSeries)
	if len(series) > 50 {
		return shared.NewDomainError("INVALID_INVOICE_SERIES", "Invoice series cannot exceed 50 characters")
	}
	if p.NextInvoiceNumber != nil && *p.NextInvoiceNumber < 1 {
		return shared.NewDomainError("INVALID_NEXT_INVOICE_NUMBER", "Next invoice number must be at least 1")
	}

	u.Name = name
	u.CompanyCode = strings.TrimSpace(p.CompanyCode)
	u.VATCode = strings.TrimSpace(p.VATCode)
	u.Address = strings.TrimSpace(p.Address)
	u.Phone = strings.TrimSpace(p.Phone)
	u.Website = strings.TrimSpace(p.Website)
	u.BankName = strings.TrimSpace(p.BankName)
	u.BankAccount = strings.TrimSpace(p.BankAccount)
	u.InvoiceSeries = series
	if p.NextInvoiceNumber != nil {
		u.NextInvoiceNumber = *p.NextInvoiceNumber
	}
	u.Touch()
	return nil
}

// Series returns the configured invoice series or the default one
func (u *User) Series() string {
	if u.InvoiceSeries == "" {
		return DefaultInvoiceSeries
	}
	return u.InvoiceSeries
}

// SetSignature records the storage key of a new signature image and returns the previous key
func (u *User) SetSignature(key string) (previous string) {
	previous = u.SignatureKey
	u.SignatureKey = key
	u.Touch()
	return previous
}

// ClearSignature removes the signature reference and returns the previous key
func (u *User) ClearSignature() (previous string) {
	return u.SetSignature("")
}

// HasSignature reports whether a signature image is stored
func (u *User) HasSignature() bool {
	return u.SignatureKey != ""
}

// ChangePassword changes the user's password
func (u *User) ChangePassword(oldPassword, newPassword string) error {
	if !u.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}
	return u.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one
func (u *User) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u.PasswordHash = passwordHash
	u.Touch()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *User) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// Validation functions

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 255 characters")
	}
	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	// bcrypt ignores everything past 72 bytes
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 255 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 255 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
