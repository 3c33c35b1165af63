package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/identity"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

const (
	// MaxSignatureSize is the largest accepted signature image
	MaxSignatureSize = 2 << 20

	signatureContentType = "image/png"
)

// Signature errors
var (
	ErrSignatureTooLarge = shared.NewDomainError("INVALID_SIGNATURE", "The signature must not be greater than 2048 kilobytes.")
	ErrSignatureNotPNG   = shared.NewDomainError("INVALID_SIGNATURE", "The signature must be a file of type: png.")
	ErrSignatureEmpty    = shared.NewDomainError("INVALID_SIGNATURE", "The signature field is required.")
)

// ProfileService manages the seller profile and signature image
type ProfileService struct {
	users   identity.UserRepository
	objects storage.ObjectStorage
	logger  *zap.Logger
	now     func() time.Time
}

// NewProfileService creates a new ProfileService
func NewProfileService(users identity.UserRepository, objects storage.ObjectStorage, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		users:   users,
		objects: objects,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns the profile with the signature inlined as a data URL
func (s *ProfileService) Get(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withSignature(ctx, user), nil
}

// Update applies the allow-listed profile fields. The invoice counter is
// checked against the issued numbers when the request sets it or moves the
// seller to another series.
func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, req ProfileRequest) (*UserResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	series := user.Series()
	if err := user.UpdateProfile(req.toUpdate()); err != nil {
		return nil, err
	}

	if req.NextInvoiceNumber == nil && user.Series() == series {
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return s.withSignature(ctx, user), nil
	}

	if err := s.users.UpdateNumbering(ctx, user, req.NextInvoiceNumber); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice numbering changed",
		zap.String("user_id", user.ID.String()),
		zap.String("series", user.Series()),
		zap.Int64("next_invoice_number", user.NextInvoiceNumber),
	)
	return s.withSignature(ctx, user), nil
}

// UploadSignature stores a PNG signature and replaces the previous one
func (s *ProfileService) UploadSignature(ctx context.Context, userID uuid.UUID, data []byte) (*SignatureResponse, error) {
	if len(data) == 0 {
		return nil, ErrSignatureEmpty
	}
	if len(data) > MaxSignatureSize {
		return nil, ErrSignatureTooLarge
	}
	if http.DetectContentType(data) != signatureContentType {
		return nil, ErrSignatureNotPNG
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("signatures/signature_%s_%d.png", user.ID, s.now().Unix())
	if err := s.objects.Upload(ctx, key, data, signatureContentType); err != nil {
		return nil, fmt.Errorf("upload signature: %w", err)
	}

	previous := user.SetSignature(key)
	if err := s.users.Update(ctx, user); err != nil {
		s.deleteObject(ctx, key)
		return nil, err
	}
	if previous != "" && previous != key {
		s.deleteObject(ctx, previous)
	}

	return &SignatureResponse{
		Message:      "Signature uploaded",
		Signature:    key,
		SignatureURL: printing.DataURL(signatureContentType, data),
	}, nil
}

// DeleteSignature removes the signature reference and its stored image
func (s *ProfileService) DeleteSignature(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	previous := user.ClearSignature()
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if previous != "" {
		s.deleteObject(ctx, previous)
	}
	return nil
}

// SignatureDataURL loads the user's signature as a data URL. A user without
// a signature, or whose image is gone from storage, yields "".
func (s *ProfileService) SignatureDataURL(ctx context.Context, user *identity.User) (string, error) {
	if !user.HasSignature() {
		return "", nil
	}
	data, err := s.objects.Download(ctx, user.SignatureKey)
	if errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Signature image missing from storage",
			zap.String("user_id", user.ID.String()),
			zap.String("key", user.SignatureKey),
		)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("download signature: %w", err)
	}
	return printing.DataURL(signatureContentType, data), nil
}

func (s *ProfileService) withSignature(ctx context.Context, user *identity.User) *UserResponse {
	resp := ToUserResponse(user)
	url, err := s.SignatureDataURL(ctx, user)
	if err != nil {
		s.logger.Warn("Failed to load signature", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	resp.SignatureURL = url
	return &resp
}

func (s *ProfileService) deleteObject(ctx context.Context, key string) {
	if err := s.objects.DeleteObject(ctx, key); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete signature object", zap.String("key", key), zap.Error(err))
	}
}
