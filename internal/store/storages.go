package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/models"
)

// NodeStorages groups the node's local repositories: one [LocalRepository]
// per entity type plus the outbox, all sharing one SQLite connection.
type NodeStorages struct {
	DB *DB

	Outbox OutboxRepository

	Fowls            LocalRepository[*models.Fowl]
	Transfers        LocalRepository[*models.Transfer]
	Listings         LocalRepository[*models.Listing]
	CoinTransactions LocalRepository[*models.CoinTransaction]
	Messages         LocalRepository[*models.Message]
}

// NewNodeStorages opens (and migrates) the local database described by cfg
// and wires every repository to it.
func NewNodeStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*NodeStorages, error) {
	logger.Info().Msg("creating node storages...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	return newNodeStorages(db, logger), nil
}

func newNodeStorages(db *DB, logger *logger.Logger) *NodeStorages {
	return &NodeStorages{
		DB:               db,
		Outbox:           NewOutboxRepository(db, logger),
		Fowls:            NewLocalRepository(db, FowlSchema, logger),
		Transfers:        NewLocalRepository(db, TransferSchema, logger),
		Listings:         NewLocalRepository(db, ListingSchema, logger),
		CoinTransactions: NewLocalRepository(db, CoinTransactionSchema, logger),
		Messages:         NewLocalRepository(db, MessageSchema, logger),
	}
}

// Close releases the underlying connection.
func (s *NodeStorages) Close() error {
	return s.DB.Close()
}

// ServerStorages groups the document server's repositories.
type ServerStorages struct {
	DB *DB

	Documents DocumentRepository
}

// NewServerStorages opens (and migrates) the PostgreSQL database described
// by cfg.
func NewServerStorages(ctx context.Context, cfg config.Storage, logger *logger.Logger) (*ServerStorages, error) {
	logger.Info().Msg("creating server storages...")

	db, err := NewConnectPostgres(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	return &ServerStorages{
		DB:        db,
		Documents: NewDocumentRepository(db, logger),
	}, nil
}

// Close releases the underlying connection.
func (s *ServerStorages) Close() error {
	return s.DB.Close()
}
