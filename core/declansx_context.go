package core

import (
	"context"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	configfile "github.com/fiesolecouk/declansx/internal/providers/config/file"
	"github.com/fiesolecouk/declansx/inventory"
)

func NewContextService(opts BootstrapConfig) config.ContextService {
	return configfile.NewCatalogService(opts.ContextCatalogPath)
}

func NewDeclansxContext(opts BootstrapConfig, selection config.ContextSelection) (DeclansxContext, error) {
	contextService := NewContextService(opts)
	defaultOrchestrator, credentialStore, err := buildDefaultOrchestrator(context.Background(), contextService, selection, opts.StrictNames)

	if err != nil {
		return DeclansxContext{}, err
	}

	var inventorySync inventory.Sync
	if defaultOrchestrator.Inventory != nil {
		var ok bool
		inventorySync, ok = defaultOrchestrator.Inventory.(inventory.Sync)
		if !ok {
			return DeclansxContext{}, faults.NewTypedError(
				faults.InternalError,
				"inventory provider does not implement sync capabilities",
				nil,
			)
		}
	}

	return DeclansxContext{
		Contexts:      contextService,
		Orchestrator:  defaultOrchestrator,
		Inventory:     defaultOrchestrator.Inventory,
		InventorySync: inventorySync,
		Session:       defaultOrchestrator.Session,
		Secrets:       credentialStore,
	}, nil
}
