package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	clitestkit "github.com/fiesolecouk/declansx/internal/cli/testkit"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func runRoot(deps Dependencies, stdin string, args ...string) (string, error) {
	return clitestkit.Run(NewRootCommand(deps), stdin, args...)
}

func runRootWithStreams(deps Dependencies, stdin string, args ...string) (string, string, error) {
	return clitestkit.RunWithStreams(NewRootCommand(deps), stdin, args...)
}

// mustRunRoot runs the root command and fails the test on any error, naming
// the command line that broke.
func mustRunRoot(t *testing.T, deps Dependencies, stdin string, args ...string) string {
	t.Helper()

	output, err := runRoot(deps, stdin, args...)
	if err != nil {
		t.Fatalf("run %s: %v", strings.Join(args, " "), err)
	}
	return output
}

// registeredPathSet flattens the visible command tree into a set of
// space-joined paths.
func registeredPathSet(deps Dependencies) map[string]struct{} {
	pathSet := make(map[string]struct{})
	for _, path := range clitestkit.CommandPaths(NewRootCommand(deps), nil) {
		pathSet[clitestkit.PathString(path)] = struct{}{}
	}
	return pathSet
}

// findSubcommand descends the command tree following the given names,
// returning nil when any segment is missing.
func findSubcommand(root *cobra.Command, path ...string) *cobra.Command {
	current := root
	for _, name := range path {
		var next *cobra.Command
		for _, child := range current.Commands() {
			if child.Name() == name {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	return current
}

// helpSection returns the indented block printed under the given heading,
// stopping at the next blank line or heading.
func helpSection(output string, heading string) string {
	var section []string
	collecting := false
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case !collecting:
			collecting = trimmed == heading
		case trimmed == "":
			if len(section) > 0 {
				return strings.Join(section, "\n")
			}
		case strings.HasSuffix(trimmed, ":") && !strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t"):
			return strings.Join(section, "\n")
		default:
			section = append(section, line)
		}
	}
	return strings.Join(section, "\n")
}

func newTestDeps() Dependencies {
	return newTestDepsWith(&testOrchestrator{})
}

func newTestDepsWith(orchestratorService *testOrchestrator) Dependencies {
	inventoryService := &testInventory{}
	return Dependencies{
		Orchestrator:  orchestratorService,
		Contexts:      &testContextService{},
		Inventory:     inventoryService,
		InventorySync: inventoryService,
		Session:       &testSession{},
		Secrets:       newTestCredentialStore(),
	}
}

// testContextService resolves contexts by magic names so one fake covers
// every context shape the commands branch on: "git" and "git-no-remote"
// select git inventories, "json"/"yaml" set a default output format, and
// "infra" sets a default policy domain. Everything else resolves to a
// filesystem-inventory context named "dev".
type testContextService struct{}

func (svc *testContextService) Create(context.Context, config.Context) error { return nil }
func (svc *testContextService) Update(context.Context, config.Context) error { return nil }
func (svc *testContextService) Delete(context.Context, string) error         { return nil }
func (svc *testContextService) Rename(context.Context, string, string) error { return nil }
func (svc *testContextService) List(context.Context) ([]config.Context, error) {
	return []config.Context{{Name: "dev"}, {Name: "prod"}}, nil
}
func (svc *testContextService) SetCurrent(context.Context, string) error { return nil }
func (svc *testContextService) GetCurrent(context.Context) (config.Context, error) {
	return config.Context{Name: "dev"}, nil
}
func (svc *testContextService) ResolveContext(_ context.Context, selection config.ContextSelection) (config.Context, error) {
	name := selection.Name
	if name == "" {
		name = "dev"
	}

	resolved := config.Context{
		Name: name,
		Manager: config.Manager{
			BaseURL: "https://nsx.example.invalid",
			Auth: &config.ManagerAuth{
				BasicAuth: &config.BasicAuth{Username: "admin", Password: "secret:nsx-password"},
			},
		},
		Inventory: config.Inventory{
			Filesystem: &config.FilesystemInventory{BaseDir: "/tmp/inventory"},
		},
	}

	switch name {
	case "git", "git-no-remote":
		git := &config.GitInventory{Local: config.GitLocal{BaseDir: "/tmp/inventory"}}
		if name == "git" {
			git.Remote = &config.GitRemote{URL: "https://example.invalid/inventory.git"}
		}
		resolved.Inventory = config.Inventory{Git: git}
	case "json", "yaml":
		resolved.Defaults.Output = name
	case "infra":
		resolved.Defaults.Domain = "infra"
	}

	return resolved, nil
}
func (svc *testContextService) Validate(context.Context, config.Context) error { return nil }

type applyDocumentCall struct {
	document resource.Document
	opts     reconcile.Options
}

type applyAllCall struct {
	documents []resource.Document
	opts      reconcile.Options
}

type remoteObjectCall struct {
	kind   resource.Kind
	domain string
	name   string
}

type listRemoteCall struct {
	kind   resource.Kind
	domain string
}

type diffCall struct {
	kind resource.Kind
	name string
}

// testOrchestrator records every call and answers with configurable values.
// The zero value reconciles everything as Created with deterministic ids.
type testOrchestrator struct {
	applyDocumentCalls []applyDocumentCall
	applyAllCalls      []applyAllCall
	getRemoteCalls     []remoteObjectCall
	listRemoteCalls    []listRemoteCall
	diffCalls          []diffCall
	saveRemoteCalls    []remoteObjectCall

	applyOutcome    *reconcile.Outcome
	applyOutcomes   map[string]reconcile.Outcome
	getRemoteValue  *resource.RemoteObject
	getRemoteErr    error
	listRemoteValue []resource.RemoteObject
	listRemoteErr   error
	diffValue       []resource.DiffEntry
	diffErr         error
	saveRemoteErr   error
}

func (r *testOrchestrator) outcomeFor(name string) reconcile.Outcome {
	if r.applyOutcomes != nil {
		if outcome, found := r.applyOutcomes[name]; found {
			return outcome
		}
	}
	if r.applyOutcome != nil {
		return *r.applyOutcome
	}
	return reconcile.Outcome{
		Action:   reconcile.ActionCreated,
		RemoteID: "id-" + name,
	}
}

func (r *testOrchestrator) resultFor(document resource.Document) orchestrator.DocumentResult {
	name := ""
	if document.Spec != nil {
		name = document.Spec.DisplayName()
	}
	return orchestrator.DocumentResult{
		Kind:    document.Kind,
		Domain:  document.Domain,
		Name:    name,
		Outcome: r.outcomeFor(name),
	}
}

func (r *testOrchestrator) ApplyDocument(
	_ context.Context,
	document resource.Document,
	opts reconcile.Options,
) orchestrator.DocumentResult {
	r.applyDocumentCalls = append(r.applyDocumentCalls, applyDocumentCall{
		document: document,
		opts:     opts,
	})
	return r.resultFor(document)
}

func (r *testOrchestrator) ApplyAll(
	_ context.Context,
	documents []resource.Document,
	opts reconcile.Options,
) orchestrator.BatchReport {
	recorded := make([]resource.Document, len(documents))
	copy(recorded, documents)
	r.applyAllCalls = append(r.applyAllCalls, applyAllCall{
		documents: recorded,
		opts:      opts,
	})

	results := make([]orchestrator.DocumentResult, 0, len(documents))
	for _, document := range documents {
		results = append(results, r.resultFor(document))
	}
	return orchestrator.BatchReport{
		Results: results,
		Summary: summarizeResultsForTest(results),
	}
}

func summarizeResultsForTest(results []orchestrator.DocumentResult) orchestrator.BatchSummary {
	summary := orchestrator.BatchSummary{Total: len(results)}
	for _, result := range results {
		switch result.Outcome.Action {
		case reconcile.ActionFound:
			summary.Found++
		case reconcile.ActionCreated:
			summary.Created++
		case reconcile.ActionUpdated:
			summary.Updated++
		case reconcile.ActionConflict:
			summary.Conflicts++
		case reconcile.ActionDryRun:
			summary.DryRuns++
		case reconcile.ActionError:
			summary.Errors++
		}
	}
	return summary
}

func (r *testOrchestrator) GetRemote(
	_ context.Context,
	kind resource.Kind,
	domain string,
	name string,
) (resource.RemoteObject, error) {
	r.getRemoteCalls = append(r.getRemoteCalls, remoteObjectCall{
		kind:   kind,
		domain: domain,
		name:   name,
	})
	if r.getRemoteErr != nil {
		return resource.RemoteObject{}, r.getRemoteErr
	}
	if r.getRemoteValue != nil {
		return *r.getRemoteValue, nil
	}
	return resource.RemoteObject{
		ID:          "id-" + name,
		DisplayName: name,
		Revision:    3,
	}, nil
}

func (r *testOrchestrator) ListRemote(
	_ context.Context,
	kind resource.Kind,
	domain string,
) ([]resource.RemoteObject, error) {
	r.listRemoteCalls = append(r.listRemoteCalls, listRemoteCall{
		kind:   kind,
		domain: domain,
	})
	if r.listRemoteErr != nil {
		return nil, r.listRemoteErr
	}
	if r.listRemoteValue != nil {
		items := make([]resource.RemoteObject, len(r.listRemoteValue))
		copy(items, r.listRemoteValue)
		return items, nil
	}
	return []resource.RemoteObject{
		{ID: "id-alpha", DisplayName: "alpha", Revision: 1},
		{ID: "id-beta", DisplayName: "beta", Revision: 2},
	}, nil
}

func (r *testOrchestrator) Diff(
	_ context.Context,
	kind resource.Kind,
	name string,
) ([]resource.DiffEntry, error) {
	r.diffCalls = append(r.diffCalls, diffCall{kind: kind, name: name})
	if r.diffErr != nil {
		return nil, r.diffErr
	}
	if r.diffValue != nil {
		items := make([]resource.DiffEntry, len(r.diffValue))
		copy(items, r.diffValue)
		return items, nil
	}
	return nil, nil
}

func (r *testOrchestrator) SaveRemote(
	_ context.Context,
	kind resource.Kind,
	domain string,
	name string,
) (resource.Document, error) {
	r.saveRemoteCalls = append(r.saveRemoteCalls, remoteObjectCall{
		kind:   kind,
		domain: domain,
		name:   name,
	})
	if r.saveRemoteErr != nil {
		return resource.Document{}, r.saveRemoteErr
	}
	return resource.Document{
		Kind:   kind,
		Domain: domain,
		Spec:   specForKind(kind, name),
	}, nil
}

func specForKind(kind resource.Kind, name string) resource.Spec {
	switch kind {
	case resource.KindTier0:
		return resource.Tier0GatewaySpec{Name: name}
	case resource.KindTier1:
		return resource.Tier1GatewaySpec{Name: name}
	default:
		return resource.GroupSpec{Name: name}
	}
}

// testInventory backs both the document store and the sync service, like the
// real git-backed store does.
type testInventory struct {
	saved        []resource.Document
	documents    []resource.Document
	getValues    map[string]resource.Document
	deleteCalls  []string
	initCalls    int
	commitCalls  []string
	commitRecord *inventory.CommitRecord
	historyList  []inventory.CommitRecord
	refreshCalls int
	pushCalls    []inventory.PushPolicy
	syncReport   *inventory.SyncReport
	syncErr      error
	checkErr     error
}

func documentKey(kind resource.Kind, name string) string {
	return string(kind) + "/" + name
}

func (r *testInventory) Save(_ context.Context, document resource.Document) error {
	r.saved = append(r.saved, document)
	return nil
}

func (r *testInventory) Get(_ context.Context, kind resource.Kind, name string) (resource.Document, error) {
	if r.getValues != nil {
		if document, found := r.getValues[documentKey(kind, name)]; found {
			return document, nil
		}
	}
	return resource.Document{}, faults.NewTypedError(
		faults.NotFoundError,
		fmt.Sprintf("no stored spec for %s %q", kind, name),
		nil,
	)
}

func (r *testInventory) Delete(_ context.Context, kind resource.Kind, name string) error {
	r.deleteCalls = append(r.deleteCalls, documentKey(kind, name))
	return nil
}

func (r *testInventory) List(_ context.Context, policy inventory.ListPolicy) ([]resource.Document, error) {
	items := make([]resource.Document, 0, len(r.documents))
	for _, document := range r.documents {
		if policy.Kind != "" && document.Kind != policy.Kind {
			continue
		}
		items = append(items, document)
	}
	return items, nil
}

func (r *testInventory) Exists(_ context.Context, kind resource.Kind, name string) (bool, error) {
	if r.getValues == nil {
		return false, nil
	}
	_, found := r.getValues[documentKey(kind, name)]
	return found, nil
}

func (r *testInventory) Init(context.Context) error {
	r.initCalls++
	return nil
}

func (r *testInventory) Commit(_ context.Context, message string) (inventory.CommitRecord, error) {
	r.commitCalls = append(r.commitCalls, message)
	if r.commitRecord != nil {
		return *r.commitRecord, nil
	}
	return inventory.CommitRecord{
		Hash:    "0123456789abcdef0123456789abcdef01234567",
		Author:  "declansx <declansx@example.invalid>",
		Message: message,
		When:    time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC),
	}, nil
}

func (r *testInventory) History(_ context.Context, policy inventory.HistoryPolicy) ([]inventory.CommitRecord, error) {
	records := r.historyList
	if records == nil {
		records = []inventory.CommitRecord{
			{
				Hash:    "0123456789abcdef0123456789abcdef01234567",
				Author:  "declansx <declansx@example.invalid>",
				Message: "add web-servers group",
				When:    time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC),
			},
		}
	}
	if policy.Limit > 0 && policy.Limit < len(records) {
		records = records[:policy.Limit]
	}
	items := make([]inventory.CommitRecord, len(records))
	copy(items, records)
	return items, nil
}

func (r *testInventory) Refresh(context.Context) error {
	r.refreshCalls++
	return nil
}

func (r *testInventory) Push(_ context.Context, policy inventory.PushPolicy) error {
	r.pushCalls = append(r.pushCalls, policy)
	return nil
}

func (r *testInventory) SyncStatus(context.Context) (inventory.SyncReport, error) {
	if r.syncErr != nil {
		return inventory.SyncReport{}, r.syncErr
	}
	if r.syncReport != nil {
		return *r.syncReport, nil
	}
	return inventory.SyncReport{State: inventory.SyncStateUpToDate}, nil
}

func (r *testInventory) Check(context.Context) error { return r.checkErr }

type testSession struct {
	versionInfo  *manager.VersionInfo
	versionErr   error
	reachableErr error
}

func (s *testSession) GetCollection(_ context.Context, kind resource.Kind, domain string) (manager.Collection, error) {
	return &testCollection{kind: kind, domain: domain}, nil
}

func (s *testSession) Version(context.Context) (manager.VersionInfo, error) {
	if s.versionErr != nil {
		return manager.VersionInfo{}, s.versionErr
	}
	if s.versionInfo != nil {
		return *s.versionInfo, nil
	}
	return manager.VersionInfo{ProductVersion: "4.1.2.3.0"}, nil
}

func (s *testSession) CheckReachable(context.Context) error { return s.reachableErr }

type testCollection struct {
	kind   resource.Kind
	domain string
}

func (c *testCollection) List(context.Context) ([]resource.RemoteObject, error) {
	return nil, nil
}

func (c *testCollection) Get(_ context.Context, id string) (resource.RemoteObject, error) {
	return resource.RemoteObject{ID: id}, nil
}

func (c *testCollection) Create(_ context.Context, spec resource.Spec) (resource.RemoteObject, error) {
	return resource.RemoteObject{ID: "id-" + spec.DisplayName(), DisplayName: spec.DisplayName()}, nil
}

func (c *testCollection) Update(_ context.Context, id string, spec resource.Spec, revision int64) (resource.RemoteObject, error) {
	return resource.RemoteObject{ID: id, DisplayName: spec.DisplayName(), Revision: revision + 1}, nil
}

type testCredentialStore struct {
	values map[string]string
}

func newTestCredentialStore() *testCredentialStore {
	return &testCredentialStore{values: map[string]string{}}
}

func (c *testCredentialStore) Init(context.Context) error {
	if c.values == nil {
		c.values = map[string]string{}
	}
	return nil
}

func (c *testCredentialStore) Store(_ context.Context, name string, value string) error {
	if c.values == nil {
		c.values = map[string]string{}
	}
	c.values[name] = value
	return nil
}

func (c *testCredentialStore) Get(_ context.Context, name string) (string, error) {
	value, found := c.values[name]
	if !found {
		return "", faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("credential %q not found", name), nil)
	}
	return value, nil
}

func (c *testCredentialStore) Delete(_ context.Context, name string) error {
	delete(c.values, name)
	return nil
}

func (c *testCredentialStore) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(c.values))
	for name := range c.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
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
