package domain

import (
	"time"

	"github.com/google/uuid"
)

type CheckIn struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}
