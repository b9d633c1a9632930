package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"testing"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func TestSetupImportRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	t.Run("unknown_yaml_field", func(t *testing.T) {
		t.Parallel()

		catalog := &testContextService{}
		_, err := runConfig(t, catalog, &common.GlobalFlags{}, `
name: dev
inventory:
  filesystem:
    base-dir: /tmp/inv
unknown: true
`, "setup", "--file", "-", "--format", "yaml")
		assertCategory(t, err, faults.ValidationError)
		if catalog.createCalled {
			t.Fatal("want no create call after a decode failure")
		}
	})

	t.Run("unknown_nested_yaml_field", func(t *testing.T) {
		t.Parallel()

		catalog := &testContextService{}
		_, err := runConfig(t, catalog, &common.GlobalFlags{}, `
name: dev
inventory:
  filesystem:
    base-dir: /tmp/inv
    extra: true
`, "setup", "--file", "-")
		assertCategory(t, err, faults.ValidationError)
		if catalog.createCalled {
			t.Fatal("want no create call after a decode failure")
		}
	})
}

func TestPrintTemplateRendersFullTemplateWithoutContextService(t *testing.T) {
	t.Parallel()

	output, err := runConfig(t, nil, &common.GlobalFlags{}, "", "print-template")
	if err != nil {
		t.Fatalf("print-template: %v", err)
	}

	for _, want := range []string{
		"contexts:",
		"current-ctx:",
		"manager:",
		"base-url:",
		"session-token:",
		"basic-auth:",
		"bearer-token:",
		"min-version:",
		"inventory:",
		"git:",
		"filesystem:",
		"secret-store:",
		"defaults:",
		"default-editor:",
		"Mutually exclusive: choose exactly one",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("want template to contain %q, got %q", want, output)
		}
	}
}

func TestPrintTemplateTakesNoArguments(t *testing.T) {
	t.Parallel()

	_, err := runConfig(t, nil, &common.GlobalFlags{}, "", "print-template", "unexpected")
	if err == nil {
		t.Fatal("want print-template to reject positional arguments")
	}
}

func TestSetupImportsSingleContextAndSupportsRename(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, `
name: dev
inventory:
  filesystem:
    base-dir: /tmp/dev
manager:
  base-url: https://nsx.dev.example.com
`,
		"setup", "--file", "-", "--format", "yaml", "--context-name", "dev-imported")
	if err != nil {
		t.Fatalf("setup import: %v", err)
	}

	if got := len(catalog.createdContexts); got != 1 {
		t.Fatalf("want one created context, got %d", got)
	}
	if got := catalog.createdContexts[0].Name; got != "dev-imported" {
		t.Fatalf("want imported context renamed to dev-imported, got %q", got)
	}
	if catalog.setCurrentName != "" {
		t.Fatalf("want current context untouched, got %q", catalog.setCurrentName)
	}
}

func TestSetupImportsCatalogAndSetsCurrent(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, `
contexts:
  - name: dev
    inventory:
      filesystem:
        base-dir: /tmp/dev
  - name: prod
    inventory:
      filesystem:
        base-dir: /tmp/prod
current-ctx: prod
`,
		"setup", "--file", "-", "--set-current")
	if err != nil {
		t.Fatalf("setup import: %v", err)
	}

	if got := len(catalog.createdContexts); got != 2 {
		t.Fatalf("want two created contexts, got %d", got)
	}
	if catalog.setCurrentName != "prod" {
		t.Fatalf("want current context prod from catalog current-ctx, got %q", catalog.setCurrentName)
	}
}

func TestSetupRejectsExistingContextName(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		listValue: []configdomain.Context{{Name: "dev"}},
	}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, `
name: dev
inventory:
  filesystem:
    base-dir: /tmp/dev
`,
		"setup", "--file", "-")
	assertCategory(t, err, faults.ValidationError)
	if catalog.createCalled {
		t.Fatal("want no create call for a duplicate context name")
	}
}

func TestSetupInteractiveWizardCreatesContext(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	prompter := &scriptedPrompter{
		tty:            true,
		inputAnswers:   []string{"/tmp/inv", "https://nsx.lab.example.com", "admin", "4.1.0", "", "default"},
		secretAnswers:  []string{"hunter2"},
		selectAnswers:  []string{"yaml", "filesystem", "session-token", "table"},
		confirmAnswers: []bool{false, false, false, true},
	}

	_, err := runConfigWithPrompter(t, catalog, &common.GlobalFlags{}, prompter, "",
		"setup", "lab", "--set-current")
	if err != nil {
		t.Fatalf("interactive setup: %v", err)
	}

	created := catalog.lastCreated()
	if created.Name != "lab" {
		t.Fatalf("want context name lab, got %q", created.Name)
	}
	if created.Inventory.Format != configdomain.DocumentFormatYAML {
		t.Fatalf("want yaml inventory format, got %q", created.Inventory.Format)
	}
	if created.Inventory.Filesystem == nil || created.Inventory.Filesystem.BaseDir != "/tmp/inv" {
		t.Fatalf("want filesystem inventory at /tmp/inv, got %+v", created.Inventory)
	}
	if created.Manager.BaseURL != "https://nsx.lab.example.com" {
		t.Fatalf("want lab manager base-url, got %q", created.Manager.BaseURL)
	}
	if created.Manager.MinVersion != "4.1.0" {
		t.Fatalf("want min-version 4.1.0, got %q", created.Manager.MinVersion)
	}
	auth := created.Manager.Auth
	if auth == nil || auth.SessionToken == nil {
		t.Fatalf("want session-token auth, got %+v", auth)
	}
	if auth.SessionToken.Username != "admin" || auth.SessionToken.Password != "hunter2" {
		t.Fatalf("want prompted session credentials, got %+v", auth.SessionToken)
	}
	if created.SecretStore != nil {
		t.Fatalf("want no secret store, got %+v", created.SecretStore)
	}
	if created.Defaults.Domain != "default" || created.Defaults.Output != "table" {
		t.Fatalf("want prompted defaults, got %+v", created.Defaults)
	}
	if catalog.setCurrentName != "lab" {
		t.Fatalf("want current context lab, got %q", catalog.setCurrentName)
	}

	wantInputPrompts := []string{
		"Inventory base-dir: ",
		"Manager base-url: ",
		"Manager username: ",
		"Manager password: ",
		"Minimum NSX product version (optional): ",
		"Manager request timeout-seconds (optional): ",
		"Default policy domain (optional): ",
	}
	if !slices.Equal(prompter.askedInputs, wantInputPrompts) {
		t.Fatalf("unexpected wizard input order:\ngot  %q\nwant %q", prompter.askedInputs, wantInputPrompts)
	}
	wantSelectPrompts := []string{
		"Select inventory document format (default keeps yaml)",
		"Select inventory type",
		"Select manager auth method",
		"Select default output format",
	}
	if !slices.Equal(prompter.askedSelects, wantSelectPrompts) {
		t.Fatalf("unexpected wizard select order:\ngot  %q\nwant %q", prompter.askedSelects, wantSelectPrompts)
	}
}

func TestUseContextSetsNamedContext(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "use-context", "prod")
	if err != nil {
		t.Fatalf("use-context: %v", err)
	}
	if catalog.setCurrentName != "prod" {
		t.Fatalf("want current context prod, got %q", catalog.setCurrentName)
	}
}

func TestUseContextSelectsInteractivelyWhenNameOmitted(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		listValue: []configdomain.Context{{Name: "dev"}, {Name: "prod"}},
	}
	prompter := &scriptedPrompter{
		tty:           true,
		selectAnswers: []string{"dev"},
	}

	_, err := runConfigWithPrompter(t, catalog, &common.GlobalFlags{}, prompter, "", "use-context")
	if err != nil {
		t.Fatalf("use-context: %v", err)
	}
	if catalog.setCurrentName != "dev" {
		t.Fatalf("want selected context dev, got %q", catalog.setCurrentName)
	}
}

func TestDeleteContextRequiresNameWhenNotInteractive(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		listValue: []configdomain.Context{{Name: "dev"}},
	}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "delete-context")
	assertCategory(t, err, faults.ValidationError)
	if !strings.Contains(err.Error(), "context name is required") {
		t.Fatalf("unexpected message: %v", err)
	}
	if catalog.deletedName != "" {
		t.Fatalf("want no deletion, got %q", catalog.deletedName)
	}
}

func TestDeleteContextConfirmsInteractiveSelection(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		listValue: []configdomain.Context{{Name: "dev"}},
	}
	prompter := &scriptedPrompter{
		tty:            true,
		selectAnswers:  []string{"dev"},
		confirmAnswers: []bool{true},
	}

	_, err := runConfigWithPrompter(t, catalog, &common.GlobalFlags{}, prompter, "", "delete-context")
	if err != nil {
		t.Fatalf("delete-context: %v", err)
	}
	if catalog.deletedName != "dev" {
		t.Fatalf("want dev deleted after confirmation, got %q", catalog.deletedName)
	}
}

func TestRenameContextUsesPositionalArguments(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "rename-context", "dev", "lab")
	if err != nil {
		t.Fatalf("rename-context: %v", err)
	}
	if catalog.renameFrom != "dev" || catalog.renameTo != "lab" {
		t.Fatalf("want rename dev to lab, got %q to %q", catalog.renameFrom, catalog.renameTo)
	}
}

func TestGetContextsMarksCurrentContext(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		listValue:    []configdomain.Context{{Name: "dev"}, {Name: "prod"}},
		currentValue: configdomain.Context{Name: "prod"},
	}
	output, err := runConfig(t, catalog, &common.GlobalFlags{Output: common.OutputText}, "", "get-contexts")
	if err != nil {
		t.Fatalf("get-contexts: %v", err)
	}

	if !strings.Contains(output, "  dev\n") {
		t.Fatalf("want unmarked dev entry, got %q", output)
	}
	if !strings.Contains(output, "* prod\n") {
		t.Fatalf("want current marker on prod, got %q", output)
	}
}

func TestCurrentContextPrintsName(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		currentValue: configdomain.Context{Name: "prod"},
	}
	output, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "current-context")
	if err != nil {
		t.Fatalf("current-context: %v", err)
	}
	if strings.TrimSpace(output) != "prod" {
		t.Fatalf("want bare context name, got %q", output)
	}
}

func TestViewRendersResolvedContextAsYAMLWithOverrides(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		resolveValue: configdomain.Context{
			Name:    "prod",
			Manager: configdomain.Manager{BaseURL: "https://nsx.prod.example.com"},
		},
	}
	output, err := runConfig(t, catalog, &common.GlobalFlags{}, "",
		"view", "prod", "--set", "manager.base-url=https://nsx.prod.example.com")
	if err != nil {
		t.Fatalf("view: %v", err)
	}

	if !catalog.resolveCalled {
		t.Fatal("want view to resolve the context")
	}
	if catalog.resolveSelection.Name != "prod" {
		t.Fatalf("want resolve selection prod, got %q", catalog.resolveSelection.Name)
	}
	if got := catalog.resolveSelection.Overrides["manager.base-url"]; got != "https://nsx.prod.example.com" {
		t.Fatalf("want override to reach the resolver, got %q", got)
	}
	if !strings.Contains(output, "name: prod") {
		t.Fatalf("want yaml body with context name, got %q", output)
	}
	if !strings.Contains(output, "base-url: https://nsx.prod.example.com") {
		t.Fatalf("want yaml body with manager base-url, got %q", output)
	}
}

func TestViewRejectsMalformedOverride(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "view", "--set", "not-a-pair")
	assertCategory(t, err, faults.ValidationError)
	if catalog.resolveCalled {
		t.Fatal("want resolve skipped for a malformed override")
	}
}

func TestSetContextCreatesContextFromFlags(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "",
		"set-context", "lab",
		"--manager-url", "https://nsx.lab.example.com",
		"--username", "admin",
		"--password", "secret:nsx-admin",
		"--min-version", "4.1.0",
		"--inventory-dir", "/tmp/lab",
		"--set-current",
	)
	if err != nil {
		t.Fatalf("set-context: %v", err)
	}

	if !catalog.createCalled || catalog.updateCalled {
		t.Fatal("want set-context to create a new context")
	}
	created := catalog.lastCreated()
	if created.Manager.BaseURL != "https://nsx.lab.example.com" {
		t.Fatalf("want lab manager base-url, got %q", created.Manager.BaseURL)
	}
	if created.Manager.MinVersion != "4.1.0" {
		t.Fatalf("want min-version 4.1.0, got %q", created.Manager.MinVersion)
	}
	if created.Manager.Auth == nil || created.Manager.Auth.SessionToken == nil {
		t.Fatalf("want session-token auth by default, got %+v", created.Manager.Auth)
	}
	if created.Manager.Auth.SessionToken.Password != "secret:nsx-admin" {
		t.Fatalf("want secret reference preserved verbatim, got %q", created.Manager.Auth.SessionToken.Password)
	}
	if created.Inventory.Filesystem == nil || created.Inventory.Filesystem.BaseDir != "/tmp/lab" {
		t.Fatalf("want filesystem inventory at /tmp/lab, got %+v", created.Inventory)
	}
	if catalog.setCurrentName != "lab" {
		t.Fatalf("want current context lab, got %q", catalog.setCurrentName)
	}
}

func TestSetContextMergesIntoExistingContext(t *testing.T) {
	t.Parallel()

	existing := configdomain.Context{
		Name: "prod",
		Manager: configdomain.Manager{
			BaseURL: "https://old.example.com",
			Auth: &configdomain.ManagerAuth{
				BasicAuth: &configdomain.BasicAuth{Username: "admin", Password: "old"},
			},
		},
		Inventory: configdomain.Inventory{
			Git: &configdomain.GitInventory{Local: configdomain.GitLocal{BaseDir: "/tmp/prod"}},
		},
	}
	catalog := &testContextService{
		listValue: []configdomain.Context{existing},
	}

	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "",
		"set-context", "prod",
		"--manager-url", "https://new.example.com",
		"--password", "rotated",
	)
	if err != nil {
		t.Fatalf("set-context: %v", err)
	}

	if !catalog.updateCalled || catalog.createCalled {
		t.Fatal("want set-context to update the existing context")
	}
	updated := catalog.updatedContext
	if updated.Manager.BaseURL != "https://new.example.com" {
		t.Fatalf("want replaced manager base-url, got %q", updated.Manager.BaseURL)
	}
	if updated.Manager.Auth == nil || updated.Manager.Auth.BasicAuth == nil {
		t.Fatalf("want basic auth mode preserved, got %+v", updated.Manager.Auth)
	}
	if updated.Manager.Auth.BasicAuth.Username != "admin" || updated.Manager.Auth.BasicAuth.Password != "rotated" {
		t.Fatalf("want merged credentials, got %+v", updated.Manager.Auth.BasicAuth)
	}
	if updated.Inventory.Git == nil || updated.Inventory.Git.Local.BaseDir != "/tmp/prod" {
		t.Fatalf("want git inventory untouched, got %+v", updated.Inventory)
	}
}

func TestSetContextRejectsConflictingInventoryFlags(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "",
		"set-context", "lab",
		"--inventory-dir", "/tmp/lab",
		"--git-dir", "/tmp/lab-git",
	)
	assertCategory(t, err, faults.ValidationError)
	if catalog.createCalled || catalog.updateCalled {
		t.Fatal("want no catalog writes on a flag conflict")
	}
}

func TestSetContextRejectsBearerTokenWithCredentialFlags(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "",
		"set-context", "lab",
		"--bearer-token", "abc",
		"--username", "admin",
	)
	assertCategory(t, err, faults.ValidationError)
}

func TestSetContextRequiresName(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{}
	_, err := runConfig(t, catalog, &common.GlobalFlags{}, "", "set-context")
	assertCategory(t, err, faults.ValidationError)
	if !strings.Contains(err.Error(), "context name is required") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestConfigCheckReportsComponentStatuses(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		resolveValue: configdomain.Context{
			Name: "prod",
			Manager: configdomain.Manager{
				BaseURL:    "https://nsx.prod.example.com",
				MinVersion: "4.1.0",
			},
			Inventory: configdomain.Inventory{
				Git: &configdomain.GitInventory{
					Local:  configdomain.GitLocal{BaseDir: "/tmp/prod"},
					Remote: &configdomain.GitRemote{URL: "https://git.example.com/prod.git"},
				},
			},
		},
	}
	deps := common.CommandDependencies{
		Contexts: catalog,
		InventorySync: &testInventorySync{
			syncStatus: inventory.SyncReport{State: inventory.SyncStateUpToDate},
		},
		Session: &testSession{
			version: manager.VersionInfo{ProductVersion: "4.1.2.1.0"},
		},
		Secrets: &testCredentialStore{},
	}

	output, err := runConfigWithDeps(t, deps, &common.GlobalFlags{Output: common.OutputText}, "", "check")
	if err != nil {
		t.Fatalf("config check: %v\noutput: %s", err, output)
	}

	for _, want := range []string{
		"[OK] context",
		"[OK] inventory",
		"[OK] manager",
		"state=up_to_date",
		"version 4.1.2.1.0, minimum 4.1.0",
		"[SKIP] secret-store",
		"Result: PASS (ok=3 warn=0 fail=0 skip=1)",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("want check output to contain %q, got %q", want, output)
		}
	}
}

func TestConfigCheckFailsWhenManagerVersionBelowMinimum(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		resolveValue: configdomain.Context{
			Name: "prod",
			Manager: configdomain.Manager{
				BaseURL:    "https://nsx.prod.example.com",
				MinVersion: "4.1.0",
			},
			Inventory: configdomain.Inventory{
				Filesystem: &configdomain.FilesystemInventory{BaseDir: "/tmp/prod"},
			},
		},
	}
	deps := common.CommandDependencies{
		Contexts:      catalog,
		InventorySync: &testInventorySync{},
		Session: &testSession{
			version: manager.VersionInfo{ProductVersion: "3.2.4.1.0"},
		},
	}

	output, err := runConfigWithDeps(t, deps, &common.GlobalFlags{Output: common.OutputText}, "", "check")
	assertCategory(t, err, faults.ValidationError)

	for _, want := range []string{
		"[FAIL] manager",
		"below required minimum 4.1.0",
		"Result: FAIL",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("want check output to contain %q, got %q", want, output)
		}
	}
}

func TestConfigCheckWarnsWhenVersionProbeFails(t *testing.T) {
	t.Parallel()

	catalog := &testContextService{
		resolveValue: configdomain.Context{
			Name: "lab",
			Inventory: configdomain.Inventory{
				Filesystem: &configdomain.FilesystemInventory{BaseDir: "/tmp/lab"},
			},
		},
	}
	deps := common.CommandDependencies{
		Contexts:      catalog,
		InventorySync: &testInventorySync{},
		Session: &testSession{
			versionErr: errors.New("version endpoint unavailable"),
		},
	}

	output, err := runConfigWithDeps(t, deps, &common.GlobalFlags{Output: common.OutputText}, "", "check")
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	if !strings.Contains(output, "[WARN] manager") {
		t.Fatalf("want manager warn status, got %q", output)
	}
	if !strings.Contains(output, "Result: PASS (ok=2 warn=1 fail=0 skip=1)") {
		t.Fatalf("want warn counted in summary, got %q", output)
	}
}

func TestCoerceManagerVersionTrimsBuildSegments(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"4.1.2.1.0": "4.1.2",
		"4.1.2":     "4.1.2",
		"4.1":       "4.1",
		" 4.2.0 ":   "4.2.0",
	}
	for raw, want := range cases {
		if got := coerceManagerVersion(raw); got != want {
			t.Fatalf("coerceManagerVersion(%q) = %q, want %q", raw, got, want)
		}
	}
}

func runConfig(
	t *testing.T, contexts configdomain.ContextService,
	globalFlags *common.GlobalFlags, stdin string, args ...string,
) (string, error) {
	t.Helper()

	return runConfigWithDeps(t, common.CommandDependencies{Contexts: contexts}, globalFlags, stdin, args...)
}

func runConfigWithDeps(
	t *testing.T, deps common.CommandDependencies,
	globalFlags *common.GlobalFlags, stdin string, args ...string,
) (string, error) {
	t.Helper()

	return runConfigCommand(t, NewCommand(deps, globalFlags), stdin, args)
}

func runConfigWithPrompter(
	t *testing.T, contexts configdomain.ContextService,
	globalFlags *common.GlobalFlags, prompter contextPrompter,
	stdin string, args ...string,
) (string, error) {
	t.Helper()

	deps := common.CommandDependencies{Contexts: contexts}
	return runConfigCommand(t, buildCommand(deps, globalFlags, prompter), stdin, args)
}

// runConfigCommand executes a built command against a scripted stdin and
// returns everything written to stdout. Status messages land on stderr and
// are discarded.
func runConfigCommand(t *testing.T, command *cobra.Command, stdin string, args []string) (string, error) {
	t.Helper()

	var output bytes.Buffer
	command.SetOut(&output)
	command.SetErr(io.Discard)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return output.String(), err
}

// testContextService records every mutation so tests can assert on what the
// commands asked the catalog to do.
type testContextService struct {
	listValue        []configdomain.Context
	currentValue     configdomain.Context
	resolveValue     configdomain.Context
	resolveSelection configdomain.ContextSelection

	createdContexts []configdomain.Context
	updatedContext  configdomain.Context
	setCurrentName  string
	deletedName     string
	renameFrom      string
	renameTo        string

	createCalled   bool
	updateCalled   bool
	validateCalled bool
	resolveCalled  bool
}

func (svc *testContextService) lastCreated() configdomain.Context {
	if len(svc.createdContexts) == 0 {
		return configdomain.Context{}
	}
	return svc.createdContexts[len(svc.createdContexts)-1]
}

func (svc *testContextService) Create(_ context.Context, entry configdomain.Context) error {
	svc.createCalled = true
	svc.createdContexts = append(svc.createdContexts, entry)
	return nil
}

func (svc *testContextService) Update(_ context.Context, entry configdomain.Context) error {
	svc.updateCalled = true
	svc.updatedContext = entry
	return nil
}

func (svc *testContextService) Delete(_ context.Context, name string) error {
	svc.deletedName = name
	return nil
}

func (svc *testContextService) Rename(_ context.Context, from string, to string) error {
	svc.renameFrom = from
	svc.renameTo = to
	return nil
}

func (svc *testContextService) List(context.Context) ([]configdomain.Context, error) {
	return svc.listValue, nil
}

func (svc *testContextService) SetCurrent(_ context.Context, name string) error {
	svc.setCurrentName = name
	return nil
}

func (svc *testContextService) GetCurrent(context.Context) (configdomain.Context, error) {
	return svc.currentValue, nil
}

func (svc *testContextService) ResolveContext(_ context.Context, selection configdomain.ContextSelection) (configdomain.Context, error) {
	svc.resolveCalled = true
	svc.resolveSelection = selection
	return svc.resolveValue, nil
}

func (svc *testContextService) Validate(context.Context, configdomain.Context) error {
	svc.validateCalled = true
	return nil
}

type testInventorySync struct {
	checkErr      error
	syncStatusErr error
	syncStatus    inventory.SyncReport
}

func (s *testInventorySync) Init(context.Context) error { return nil }

func (s *testInventorySync) Commit(context.Context, string) (inventory.CommitRecord, error) {
	return inventory.CommitRecord{}, nil
}

func (s *testInventorySync) History(context.Context, inventory.HistoryPolicy) ([]inventory.CommitRecord, error) {
	return nil, nil
}

func (s *testInventorySync) Refresh(context.Context) error { return nil }

func (s *testInventorySync) Push(context.Context, inventory.PushPolicy) error { return nil }

func (s *testInventorySync) SyncStatus(context.Context) (inventory.SyncReport, error) {
	if s.syncStatusErr != nil {
		return inventory.SyncReport{}, s.syncStatusErr
	}
	return s.syncStatus, nil
}

func (s *testInventorySync) Check(context.Context) error { return s.checkErr }

type testSession struct {
	reachableErr error
	versionErr   error
	version      manager.VersionInfo
}

func (s *testSession) GetCollection(context.Context, resource.Kind, string) (manager.Collection, error) {
	return nil, errors.New("not implemented")
}

func (s *testSession) Version(context.Context) (manager.VersionInfo, error) {
	if s.versionErr != nil {
		return manager.VersionInfo{}, s.versionErr
	}
	return s.version, nil
}

func (s *testSession) CheckReachable(context.Context) error { return s.reachableErr }

type testCredentialStore struct {
	listErr error
	names   []string
}

func (s *testCredentialStore) Init(context.Context) error { return nil }

func (s *testCredentialStore) Store(context.Context, string, string) error { return nil }

func (s *testCredentialStore) Get(context.Context, string) (string, error) { return "", nil }

func (s *testCredentialStore) Delete(context.Context, string) error { return nil }

func (s *testCredentialStore) List(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.names, nil
}

func assertCategory(t *testing.T, err error, want faults.ErrorCategory) {
	t.Helper()

	if err == nil {
		t.Fatalf("want %s error, got nil", want)
	}
	if got := faults.Category(err); got != want {
		t.Fatalf("want %s error, got %s: %v", want, got, err)
	}
}

// scriptedPrompter replays scripted responses and records the prompts it was
// asked, so tests can pin the wizard's question order.
type scriptedPrompter struct {
	tty            bool
	inputAnswers   []string
	secretAnswers  []string
	selectAnswers  []string
	confirmAnswers []bool
	askedInputs    []string
	askedSelects   []string
}

// takeResponse pops the next scripted response, failing loudly when a flow
// asks more questions than the test scripted.
func takeResponse[T any](queue *[]T, kind string) (T, error) {
	if len(*queue) == 0 {
		var zero T
		return zero, fmt.Errorf("mock prompter exhausted %s responses", kind)
	}
	value := (*queue)[0]
	*queue = (*queue)[1:]
	return value, nil
}

func (p *scriptedPrompter) IsInteractive(*cobra.Command) bool {
	return p.tty
}

func (p *scriptedPrompter) Input(_ *cobra.Command, prompt string, _ bool) (string, error) {
	p.askedInputs = append(p.askedInputs, prompt)
	return takeResponse(&p.inputAnswers, "input")
}

func (p *scriptedPrompter) Secret(_ *cobra.Command, prompt string) (string, error) {
	p.askedInputs = append(p.askedInputs, prompt)
	return takeResponse(&p.secretAnswers, "secret")
}

func (p *scriptedPrompter) Select(_ *cobra.Command, prompt string, _ []string) (string, error) {
	p.askedSelects = append(p.askedSelects, prompt)
	return takeResponse(&p.selectAnswers, "select")
}

func (p *scriptedPrompter) Confirm(*cobra.Command, string, bool) (bool, error) {
	return takeResponse(&p.confirmAnswers, "confirm")
}
