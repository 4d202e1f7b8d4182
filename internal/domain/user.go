package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Status    UserStatus
	CreatedAt time.Time
}
