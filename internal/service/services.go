package service

import (
	"github.com/MKhiriev/go-farm-sync/internal/adapter"
	"github.com/MKhiriev/go-farm-sync/internal/config"
	"github.com/MKhiriev/go-farm-sync/internal/connectivity"
	"github.com/MKhiriev/go-farm-sync/internal/logger"
	"github.com/MKhiriev/go-farm-sync/internal/store"
	"github.com/MKhiriev/go-farm-sync/internal/validators"
	"github.com/MKhiriev/go-farm-sync/models"
)

// NodeServices groups the sync node's repositories and the processor that
// drains their shared outbox.
type NodeServices struct {
	Fowls            Repository[*models.Fowl]
	Transfers        Repository[*models.Transfer]
	Listings         Repository[*models.Listing]
	CoinTransactions Repository[*models.CoinTransaction]
	Messages         Repository[*models.Message]

	Processor SyncProcessor
}

func NewNodeServices(storages *store.NodeStorages, client adapter.DocumentClient, online connectivity.Connectivity, cfg config.Sync, logger *logger.Logger) *NodeServices {
	validator := validators.NewEntityValidator()

	s := &NodeServices{
		Fowls: NewRepository(storages.Fowls,
			adapter.NewRemoteStore(client, models.EntityFowl, func() *models.Fowl { return new(models.Fowl) }),
			storages.Outbox, online, validator, cfg, logger),
		Transfers: NewRepository(storages.Transfers,
			adapter.NewRemoteStore(client, models.EntityTransfer, func() *models.Transfer { return new(models.Transfer) }),
			storages.Outbox, online, validator, cfg, logger),
		Listings: NewRepository(storages.Listings,
			adapter.NewRemoteStore(client, models.EntityListing, func() *models.Listing { return new(models.Listing) }),
			storages.Outbox, online, validator, cfg, logger),
		CoinTransactions: NewRepository(storages.CoinTransactions,
			adapter.NewRemoteStore(client, models.EntityCoinTransaction, func() *models.CoinTransaction { return new(models.CoinTransaction) }),
			storages.Outbox, online, validator, cfg, logger),
		Messages: NewRepository(storages.Messages,
			adapter.NewRemoteStore(client, models.EntityMessage, func() *models.Message { return new(models.Message) }),
			storages.Outbox, online, validator, cfg, logger),
	}

	s.Processor = NewSyncProcessor(storages.Outbox, online, cfg, logger,
		s.Fowls, s.Transfers, s.Listings, s.CoinTransactions, s.Messages)

	return s
}

// Close stops every live query.
func (s *NodeServices) Close() {
	s.Fowls.Close()
	s.Transfers.Close()
	s.Listings.Close()
	s.CoinTransactions.Close()
	s.Messages.Close()
}

// ServerServices groups the document server's services.
type ServerServices struct {
	AuthService     AuthService
	DocumentService DocumentService
}

func NewServerServices(storages *store.ServerStorages, cfg config.Auth, logger *logger.Logger) *ServerServices {
	return &ServerServices{
		AuthService:     NewAuthService(cfg, logger),
		DocumentService: NewDocumentValidationService().Wrap(NewDocumentService(storages.Documents, logger)),
	}
}
