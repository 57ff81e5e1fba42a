package models

import "time"

// Message is a direct message between marketplace users.
type Message struct {
	SyncMeta

	ConversationID string     `json:"conversationId" validate:"required,max=64"`
	SenderID       string     `json:"senderId" validate:"required,max=64"`
	RecipientID    string     `json:"recipientId" validate:"required,max=64"`
	Body           string     `json:"body" validate:"required,max=4000"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
}

// EntityType implements [Syncable].
func (*Message) EntityType() EntityType { return EntityMessage }
