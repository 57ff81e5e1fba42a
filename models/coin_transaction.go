package models

// Coin transaction kinds.
const (
	CoinKindPurchase = "PURCHASE"
	CoinKindSpend    = "SPEND"
	CoinKindReward   = "REWARD"
	CoinKindRefund   = "REFUND"
)

// CoinTransaction is a movement on a user's in-app coin balance.
type CoinTransaction struct {
	SyncMeta

	UserID      string `json:"userId" validate:"required,max=64"`
	Amount      int64  `json:"amount" validate:"ne=0"`
	Kind        string `json:"kind" validate:"required,oneof=PURCHASE SPEND REWARD REFUND"`
	ReferenceID string `json:"referenceId" validate:"max=64"`
	Description string `json:"description" validate:"max=280"`
}

// EntityType implements [Syncable].
func (*CoinTransaction) EntityType() EntityType { return EntityCoinTransaction }
