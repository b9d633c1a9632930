package common

import (
	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/secrets"
)

// CommandDependencies carries the services commands draw on. A field stays
// nil when the resolved context does not configure the matching provider;
// commands gate through the Require helpers instead of touching fields
// directly.
type CommandDependencies struct {
	Orchestrator  orchestrator.Orchestrator
	Contexts      config.ContextService
	Inventory     inventory.Store
	InventorySync inventory.Sync
	Session       manager.Session
	Secrets       secrets.CredentialStore
}

func RequireContextService(deps CommandDependencies) (config.ContextService, error) {
	if deps.Contexts == nil {
		return nil, ValidationError("context service is not configured", nil)
	}
	return deps.Contexts, nil
}

func RequireOrchestrator(deps CommandDependencies) (orchestrator.Orchestrator, error) {
	if deps.Orchestrator == nil {
		return nil, ValidationError("orchestrator is not configured", nil)
	}
	return deps.Orchestrator, nil
}

func RequireInventory(deps CommandDependencies) (inventory.Store, error) {
	if deps.Inventory == nil {
		return nil, ValidationError("inventory is not configured", nil)
	}
	return deps.Inventory, nil
}

func RequireInventorySync(deps CommandDependencies) (inventory.Sync, error) {
	if deps.InventorySync == nil {
		return nil, ValidationError("inventory is not configured", nil)
	}
	return deps.InventorySync, nil
}

func RequireSession(deps CommandDependencies) (manager.Session, error) {
	if deps.Session == nil {
		return nil, ValidationError("manager session is not configured", nil)
	}
	return deps.Session, nil
}

func RequireSecrets(deps CommandDependencies) (secrets.CredentialStore, error) {
	if deps.Secrets == nil {
		return nil, ValidationError("secret store is not configured", nil)
	}
	return deps.Secrets, nil
}
