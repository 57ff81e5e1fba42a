package models

// Listing statuses.
const (
	ListingStatusActive   = "ACTIVE"
	ListingStatusReserved = "RESERVED"
	ListingStatusSold     = "SOLD"
	ListingStatusClosed   = "CLOSED"
)

// Listing is a marketplace offer for a fowl.
type Listing struct {
	SyncMeta

	SellerID    string `json:"sellerId" validate:"required,max=64"`
	FowlID      string `json:"fowlId" validate:"max=64"`
	Title       string `json:"title" validate:"required,max=140"`
	Description string `json:"description" validate:"max=2000"`
	PriceCents  int64  `json:"priceCents" validate:"gte=0"`
	Region      string `json:"region" validate:"required,max=80"`
	Status      string `json:"status" validate:"required,oneof=ACTIVE RESERVED SOLD CLOSED"`
}

// EntityType implements [Syncable].
func (*Listing) EntityType() EntityType { return EntityListing }
