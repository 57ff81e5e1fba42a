package models

import "time"

// Fowl statuses.
const (
	FowlStatusActive      = "ACTIVE"
	FowlStatusSold        = "SOLD"
	FowlStatusTransferred = "TRANSFERRED"
	FowlStatusDeceased    = "DECEASED"
)

// Fowl is a single bird tracked by a farm.
type Fowl struct {
	SyncMeta

	OwnerID     string     `json:"ownerId" validate:"max=64"`
	Name        string     `json:"name" validate:"required,max=120"`
	Breed       string     `json:"breed" validate:"max=80"`
	Gender      string     `json:"gender" validate:"omitempty,oneof=MALE FEMALE UNKNOWN"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	WeightGrams int        `json:"weightGrams" validate:"gte=0"`
	Color       string     `json:"color" validate:"max=40"`
	Status      string     `json:"status" validate:"omitempty,oneof=ACTIVE SOLD TRANSFERRED DECEASED"`
}

// EntityType implements [Syncable].
func (*Fowl) EntityType() EntityType { return EntityFowl }
