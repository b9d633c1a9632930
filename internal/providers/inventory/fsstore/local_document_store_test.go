package fsstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/resource"
)

func groupDocument(name string) resource.Document {
	return resource.Document{
		Kind:   resource.KindGroup,
		Domain: "default",
		Spec: resource.GroupSpec{
			Name:        name,
			Description: "managed by tests",
			Expressions: []resource.Expression{
				{MemberType: "VirtualMachine", Key: "Tag", Operator: "EQUALS", Value: "web"},
			},
		},
	}
}

func tier1Document(name string) resource.Document {
	return resource.Document{
		Kind: resource.KindTier1,
		Spec: resource.Tier1GatewaySpec{
			Name:      name,
			Tier0Path: "/infra/tier-0s/core",
		},
	}
}

func assertTypedCategory(t *testing.T, err error, category faults.ErrorCategory) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", category)
	}
	if got := faults.Category(err); got != category {
		t.Fatalf("expected %s, got %s (%v)", category, got, err)
	}
}

func TestLocalDocumentStoreSaveGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")
	want := groupDocument("web tier")

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(context.Background(), resource.KindGroup, "web tier")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLocalDocumentStoreFileLayout(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "yaml")

	if err := store.Save(context.Background(), tier1Document("edge")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "tier-1s", "edge.yaml"))
	if err != nil {
		t.Fatalf("expected document at tier-1s/edge.yaml: %v", err)
	}
	if !strings.Contains(string(data), "kind: tier1") {
		t.Fatalf("unexpected document content:\n%s", data)
	}
}

func TestLocalDocumentStoreJSONFormat(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "json")
	want := groupDocument("db-tier")

	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(baseDir, "groups", "db-tier.json"))
	if err != nil {
		t.Fatalf("expected document at groups/db-tier.json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("stored document is not json: %v\n%s", err, data)
	}
	if decoded["kind"] != "group" {
		t.Fatalf("unexpected kind in stored json: %v", decoded["kind"])
	}

	got, err := store.Get(context.Background(), resource.KindGroup, "db-tier")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestLocalDocumentStoreSaveOverwritesExisting(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")
	first := groupDocument("app")
	if err := store.Save(context.Background(), first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	updated := first
	spec := updated.Spec.(resource.GroupSpec)
	spec.Description = "updated description"
	updated.Spec = spec
	if err := store.Save(context.Background(), updated); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	got, err := store.Get(context.Background(), resource.KindGroup, "app")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Spec.(resource.GroupSpec).Description != "updated description" {
		t.Fatalf("expected overwritten document, got %+v", got.Spec)
	}
}

func TestLocalDocumentStoreSaveValidation(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")

	t.Run("missing_spec", func(t *testing.T) {
		err := store.Save(context.Background(), resource.Document{Kind: resource.KindGroup})
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("kind_spec_mismatch", func(t *testing.T) {
		document := resource.Document{Kind: resource.KindTier0, Spec: resource.GroupSpec{Name: "web"}}
		err := store.Save(context.Background(), document)
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("domain_on_gateway_document", func(t *testing.T) {
		document := tier1Document("edge")
		document.Domain = "tenant-a"
		err := store.Save(context.Background(), document)
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("name_with_path_separator", func(t *testing.T) {
		err := store.Save(context.Background(), groupDocument("prod/web"))
		assertTypedCategory(t, err, faults.ValidationError)
	})

	t.Run("name_traversal", func(t *testing.T) {
		err := store.Save(context.Background(), groupDocument("../escape"))
		assertTypedCategory(t, err, faults.ValidationError)
	})
}

func TestLocalDocumentStoreGetMissing(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")
	_, err := store.Get(context.Background(), resource.KindGroup, "absent")
	assertTypedCategory(t, err, faults.NotFoundError)
}

func TestLocalDocumentStoreGetRejectsKindMismatch(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "")

	groupsDir := filepath.Join(baseDir, "groups")
	if err := os.MkdirAll(groupsDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	misplaced := "kind: tier1\nspec:\n  name: edge\n"
	if err := os.WriteFile(filepath.Join(groupsDir, "edge.yaml"), []byte(misplaced), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := store.Get(context.Background(), resource.KindGroup, "edge")
	assertTypedCategory(t, err, faults.ValidationError)
}

func TestLocalDocumentStoreDelete(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "")

	if err := store.Save(context.Background(), groupDocument("web")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete(context.Background(), resource.KindGroup, "web"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(baseDir, "groups")); !os.IsNotExist(err) {
		t.Fatalf("expected empty kind directory to be cleaned up, stat err: %v", err)
	}

	err := store.Delete(context.Background(), resource.KindGroup, "web")
	assertTypedCategory(t, err, faults.NotFoundError)
}

func TestLocalDocumentStoreExists(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")

	exists, err := store.Exists(context.Background(), resource.KindTier1, "edge")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if exists {
		t.Fatal("expected document to be absent")
	}

	if err := store.Save(context.Background(), tier1Document("edge")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	exists, err = store.Exists(context.Background(), resource.KindTier1, "edge")
	if err != nil {
		t.Fatalf("exists failed: %v", err)
	}
	if !exists {
		t.Fatal("expected document to be present")
	}
}

func TestLocalDocumentStoreList(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "")

	documents := []resource.Document{
		groupDocument("web"),
		groupDocument("app"),
		tier1Document("edge"),
		{Kind: resource.KindTier0, Spec: resource.Tier0GatewaySpec{Name: "core"}},
	}
	for _, document := range documents {
		if err := store.Save(context.Background(), document); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	// Leftover temp files and unrelated files must not show up in listings.
	groupsDir := filepath.Join(baseDir, "groups")
	if err := os.WriteFile(filepath.Join(groupsDir, ".declansx-tmp-123"), []byte("partial"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(groupsDir, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	listed, err := store.List(context.Background(), inventory.ListPolicy{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	var names []string
	for _, document := range listed {
		names = append(names, string(document.Kind)+"/"+document.Spec.DisplayName())
	}
	want := []string{"group/app", "group/web", "tier0/core", "tier1/edge"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("unexpected listing order:\n got %v\nwant %v", names, want)
	}

	groupsOnly, err := store.List(context.Background(), inventory.ListPolicy{Kind: resource.KindGroup})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(groupsOnly) != 2 {
		t.Fatalf("expected 2 group documents, got %d", len(groupsOnly))
	}
}

func TestLocalDocumentStoreListRejectsInvalidDocument(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	store := NewLocalDocumentStore(baseDir, "")

	groupsDir := filepath.Join(baseDir, "groups")
	if err := os.MkdirAll(groupsDir, 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(groupsDir, "broken.yaml"), []byte("kind: group\nbogus: field\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	_, err := store.List(context.Background(), inventory.ListPolicy{})
	assertTypedCategory(t, err, faults.ValidationError)
	if !strings.Contains(err.Error(), "groups/broken.yaml") {
		t.Fatalf("expected error to name the offending file, got %v", err)
	}
}

func TestLocalDocumentStoreSyncDegradation(t *testing.T) {
	t.Parallel()

	store := NewLocalDocumentStore(t.TempDir(), "")

	_, err := store.Commit(context.Background(), "checkpoint")
	assertTypedCategory(t, err, faults.ValidationError)

	err = store.Push(context.Background(), inventory.PushPolicy{})
	assertTypedCategory(t, err, faults.ValidationError)

	history, err := store.History(context.Background(), inventory.HistoryPolicy{})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(history))
	}

	if err := store.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	report, err := store.SyncStatus(context.Background())
	if err != nil {
		t.Fatalf("sync status failed: %v", err)
	}
	if report.State != inventory.SyncStateNoRemote {
		t.Fatalf("expected %s, got %s", inventory.SyncStateNoRemote, report.State)
	}
}

func TestLocalDocumentStoreInitAndCheck(t *testing.T) {
	t.Parallel()

	baseDir := filepath.Join(t.TempDir(), "nested", "inventory")
	store := NewLocalDocumentStore(baseDir, "")

	err := store.Check(context.Background())
	assertTypedCategory(t, err, faults.NotFoundError)

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := store.Check(context.Background()); err != nil {
		t.Fatalf("check failed after init: %v", err)
	}
}

func TestLocalDocumentStoreSaveRejectsSymlinkEscape(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	outside := t.TempDir()

	if err := os.Symlink(outside, filepath.Join(baseDir, "groups")); err != nil {
		t.Fatalf("failed to create symlink: %v", err)
	}

	store := NewLocalDocumentStore(baseDir, "")
	err := store.Save(context.Background(), groupDocument("web"))
	if err == nil {
		t.Fatal("expected save to reject symlink escape path")
	}
	if !strings.Contains(err.Error(), "escapes the inventory base directory") {
		t.Fatalf("unexpected error: %v", err)
	}
}
