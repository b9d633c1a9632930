package core

import (
	"context"
	"strings"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	fsstore "github.com/fiesolecouk/declansx/internal/providers/inventory/fsstore"
	gitinventory "github.com/fiesolecouk/declansx/internal/providers/inventory/git"
	nsxhttp "github.com/fiesolecouk/declansx/internal/providers/manager/nsxhttp"
	filesecrets "github.com/fiesolecouk/declansx/internal/providers/secrets/file"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/secrets"
)

// buildDefaultOrchestrator assembles the providers a resolved context calls
// for. The credential store is built first and returned separately: manager
// credentials may reference it, while the orchestrator itself never touches
// secrets.
func buildDefaultOrchestrator(
	ctx context.Context,
	contextService config.ContextService,
	selection config.ContextSelection,
	strictNames bool,
) (*orchestrator.DefaultOrchestrator, secrets.CredentialStore, error) {
	if contextService == nil {
		return nil, nil, faults.NewTypedError(faults.ValidationError, "context service must not be nil", nil)
	}

	resolvedContext, err := contextService.ResolveContext(ctx, selection)
	if err != nil {
		return nil, nil, err
	}

	var credentialStore secrets.CredentialStore
	if resolvedContext.SecretStore != nil {
		switch {
		case resolvedContext.SecretStore.File != nil:
			fileStore, err := filesecrets.NewFileCredentialStore(*resolvedContext.SecretStore.File)
			if err != nil {
				return nil, nil, err
			}
			credentialStore = fileStore
		default:
			return nil, nil, faults.NewTypedError(faults.InternalError, "secret store provider is invalid", nil)
		}
	}

	defaultOrchestrator := &orchestrator.DefaultOrchestrator{}
	if strictNames {
		defaultOrchestrator.Reconciler = reconcile.NewDefaultReconciler(
			reconcile.WithDuplicatePolicy(reconcile.DuplicateStrict),
		)
	}

	switch {
	case resolvedContext.Inventory.Filesystem != nil:
		defaultOrchestrator.Inventory = fsstore.NewLocalDocumentStore(
			resolvedContext.Inventory.Filesystem.BaseDir,
			resolvedContext.Inventory.Format,
		)
	case resolvedContext.Inventory.Git != nil:
		defaultOrchestrator.Inventory = gitinventory.NewGitDocumentStore(
			*resolvedContext.Inventory.Git,
			resolvedContext.Inventory.Format,
		)
	}

	if strings.TrimSpace(resolvedContext.Manager.BaseURL) != "" {
		managerConfig, err := resolveManagerAuth(ctx, credentialStore, resolvedContext.Manager)
		if err != nil {
			return nil, nil, err
		}
		session, err := nsxhttp.NewNSXPolicyGateway(managerConfig)
		if err != nil {
			return nil, nil, err
		}
		defaultOrchestrator.Session = session
	}

	return defaultOrchestrator, credentialStore, nil
}

// resolveManagerAuth replaces secret references in the manager's credential
// fields with values from the credential store. The gateway requires plain
// credentials, so resolution happens here, before construction. The input
// config is not mutated.
func resolveManagerAuth(
	ctx context.Context,
	credentialStore secrets.CredentialStore,
	managerConfig config.Manager,
) (config.Manager, error) {
	if managerConfig.Auth == nil {
		return managerConfig, nil
	}

	auth := *managerConfig.Auth
	switch {
	case auth.BasicAuth != nil:
		basicAuth := *auth.BasicAuth
		username, err := secrets.ResolveValue(ctx, credentialStore, basicAuth.Username)
		if err != nil {
			return config.Manager{}, err
		}
		password, err := secrets.ResolveValue(ctx, credentialStore, basicAuth.Password)
		if err != nil {
			return config.Manager{}, err
		}
		basicAuth.Username = username
		basicAuth.Password = password
		auth.BasicAuth = &basicAuth
	case auth.BearerToken != nil:
		bearerToken := *auth.BearerToken
		token, err := secrets.ResolveValue(ctx, credentialStore, bearerToken.Token)
		if err != nil {
			return config.Manager{}, err
		}
		bearerToken.Token = token
		auth.BearerToken = &bearerToken
	case auth.SessionToken != nil:
		sessionToken := *auth.SessionToken
		username, err := secrets.ResolveValue(ctx, credentialStore, sessionToken.Username)
		if err != nil {
			return config.Manager{}, err
		}
		password, err := secrets.ResolveValue(ctx, credentialStore, sessionToken.Password)
		if err != nil {
			return config.Manager{}, err
		}
		sessionToken.Username = username
		sessionToken.Password = password
		auth.SessionToken = &sessionToken
	}

	managerConfig.Auth = &auth
	return managerConfig, nil
}
