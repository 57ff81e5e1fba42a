package models

// Transfer statuses.
const (
	TransferStatusRequested = "REQUESTED"
	TransferStatusAccepted  = "ACCEPTED"
	TransferStatusRejected  = "REJECTED"
	TransferStatusCompleted = "COMPLETED"
)

// Transfer moves ownership of a fowl between two users.
type Transfer struct {
	SyncMeta

	FowlID      string `json:"fowlId" validate:"required,max=64"`
	FromUserID  string `json:"fromUserId" validate:"required,max=64"`
	ToUserID    string `json:"toUserId" validate:"required,max=64,nefield=FromUserID"`
	Status      string `json:"status" validate:"required,oneof=REQUESTED ACCEPTED REJECTED COMPLETED"`
	AmountCents int64  `json:"amountCents" validate:"gte=0"`
	Notes       string `json:"notes" validate:"max=500"`
}

// EntityType implements [Syncable].
func (*Transfer) EntityType() EntityType { return EntityTransfer }
