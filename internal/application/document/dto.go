package document

import (
	"time"

	"github.com/google/uuid"
)

// LinkResponse is a short-lived download link for one invoice document
type LinkResponse struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Principal is the identity recovered from a document token
type Principal struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	InvoiceID uuid.UUID
}

// File is a rendered invoice document
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Pages       int
}
