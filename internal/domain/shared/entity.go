package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and timestamps every aggregate has
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch records a modification
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

// OwnedEntity belongs to exactly one seller. Repositories scope every query
// by UserID, so a foreign row reads the same as a missing one.
type OwnedEntity struct {
	BaseEntity
	UserID uuid.UUID
}

func NewOwnedEntity(userID uuid.UUID) OwnedEntity {
	return OwnedEntity{BaseEntity: NewBaseEntity(), UserID: userID}
}

// OwnedBy is false for the nil user
func (e *OwnedEntity) OwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && e.UserID == userID
}
