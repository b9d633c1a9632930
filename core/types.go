package core

import (
	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/secrets"
)

// DeclansxContext bundles the services a resolved context provides to
// commands. Inventory, InventorySync, Session and Secrets are nil when the
// context does not configure the matching provider.
type DeclansxContext struct {
	Contexts      config.ContextService
	Orchestrator  orchestrator.Orchestrator
	Inventory     inventory.Store
	InventorySync inventory.Sync
	Session       manager.Session
	Secrets       secrets.CredentialStore
}

type BootstrapConfig struct {
	ContextCatalogPath string
	// StrictNames makes display-name lookups fail on ambiguity instead of
	// resolving to the oldest matching object.
	StrictNames bool
}
