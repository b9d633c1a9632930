package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/providers/inventory/fsstore"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/resource"
	gogit "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	httpauth "github.com/go-git/go-git/v5/plumbing/transport/http"
	sshauth "github.com/go-git/go-git/v5/plumbing/transport/ssh"
	cryptossh "golang.org/x/crypto/ssh"
)

var _ inventory.Store = (*GitDocumentStore)(nil)
var _ inventory.Sync = (*GitDocumentStore)(nil)

const (
	defaultRemoteName = "origin"
	defaultBranchName = "main"

	defaultHistoryDepth = 50
)

// GitDocumentStore keeps the document layout of the filesystem store inside a
// git worktree, adding commit history and remote synchronization on top.
type GitDocumentStore struct {
	local    *fsstore.LocalDocumentStore
	baseDir  string
	remote   *config.GitRemote
	autoInit bool
}

func NewGitDocumentStore(inventoryConfig config.GitInventory, documentFormat string) *GitDocumentStore {
	return &GitDocumentStore{
		local:    fsstore.NewLocalDocumentStore(inventoryConfig.Local.BaseDir, documentFormat),
		baseDir:  inventoryConfig.Local.BaseDir,
		remote:   inventoryConfig.Remote,
		autoInit: inventoryConfig.Local.AutoInitEnabled(),
	}
}

func (s *GitDocumentStore) Save(ctx context.Context, document resource.Document) error {
	if err := s.ensureInitializedForOperation(ctx); err != nil {
		return err
	}
	return s.local.Save(ctx, document)
}

func (s *GitDocumentStore) Get(ctx context.Context, kind resource.Kind, name string) (resource.Document, error) {
	if err := s.ensureInitializedForOperation(ctx); err != nil {
		return resource.Document{}, err
	}
	return s.local.Get(ctx, kind, name)
}

func (s *GitDocumentStore) Delete(ctx context.Context, kind resource.Kind, name string) error {
	if err := s.ensureInitializedForOperation(ctx); err != nil {
		return err
	}
	return s.local.Delete(ctx, kind, name)
}

func (s *GitDocumentStore) List(ctx context.Context, policy inventory.ListPolicy) ([]resource.Document, error) {
	if err := s.ensureInitializedForOperation(ctx); err != nil {
		return nil, err
	}
	return s.local.List(ctx, policy)
}

func (s *GitDocumentStore) Exists(ctx context.Context, kind resource.Kind, name string) (bool, error) {
	if err := s.ensureInitializedForOperation(ctx); err != nil {
		return false, err
	}
	return s.local.Exists(ctx, kind, name)
}

// Commit stages and commits every pending change. A clean worktree commits
// nothing and returns a zero record. With auto-sync enabled the new commit is
// pushed immediately; a push failure comes back alongside the already-created
// record.
func (s *GitDocumentStore) Commit(ctx context.Context, message string) (inventory.CommitRecord, error) {
	repo, err := s.openRepositoryForOperation(ctx)
	if err != nil {
		return inventory.CommitRecord{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return inventory.CommitRecord{}, internalError("failed to open git worktree", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return inventory.CommitRecord{}, internalError("failed to inspect git worktree status", err)
	}
	if status.IsClean() {
		return inventory.CommitRecord{}, nil
	}

	if err := worktree.AddGlob("."); err != nil {
		return inventory.CommitRecord{}, internalError("failed to stage inventory changes", err)
	}

	commitMessage := strings.TrimSpace(message)
	if commitMessage == "" {
		commitMessage = "declansx: update inventory documents"
	}

	hash, err := worktree.Commit(commitMessage, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "declansx",
			Email: "declansx@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return inventory.CommitRecord{}, internalError("failed to commit inventory changes", err)
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		return inventory.CommitRecord{}, internalError("failed to load committed record", err)
	}

	record := commitRecordFromObject(commit)
	if s.autoSyncEnabled() {
		if pushErr := s.Push(ctx, inventory.PushPolicy{}); pushErr != nil {
			return record, pushErr
		}
	}
	return record, nil
}

func (s *GitDocumentStore) autoSyncEnabled() bool {
	return s.hasRemote() && s.remote.AutoSync
}

func (s *GitDocumentStore) History(ctx context.Context, policy inventory.HistoryPolicy) ([]inventory.CommitRecord, error) {
	repo, err := s.openRepositoryForOperation(ctx)
	if err != nil {
		return nil, err
	}

	iter, err := repo.Log(&gogit.LogOptions{Order: gogit.LogOrderCommitterTime})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return []inventory.CommitRecord{}, nil
		}
		return nil, internalError("failed to read inventory history", err)
	}

	limit := policy.Limit
	if limit <= 0 {
		limit = defaultHistoryDepth
	}

	records := make([]inventory.CommitRecord, 0, limit)
	for {
		commit, nextErr := iter.Next()
		if nextErr != nil {
			if errors.Is(nextErr, io.EOF) || errors.Is(nextErr, storer.ErrStop) {
				break
			}
			return nil, internalError("failed to iterate inventory history", nextErr)
		}

		records = append(records, commitRecordFromObject(commit))
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

func (s *GitDocumentStore) Init(ctx context.Context) error {
	if err := s.local.Init(ctx); err != nil {
		return err
	}

	repo, err := gogit.PlainOpen(s.baseDir)
	if err != nil {
		if !errors.Is(err, gogit.ErrRepositoryNotExists) {
			return internalError("failed to open git repository", err)
		}
		repo, err = gogit.PlainInit(s.baseDir, false)
		if err != nil {
			return internalError("failed to initialize git repository", err)
		}
	}

	return s.ensureRemote(repo)
}

func (s *GitDocumentStore) Refresh(ctx context.Context) error {
	if !s.hasRemote() {
		return nil
	}

	repo, err := s.openRepositoryForOperation(ctx)
	if err != nil {
		return err
	}

	if err := s.ensureRemote(repo); err != nil {
		return err
	}

	auth, err := s.authMethod()
	if err != nil {
		return err
	}

	fetchErr := repo.Fetch(&gogit.FetchOptions{
		RemoteName: defaultRemoteName,
		Auth:       auth,
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", s.targetBranch(), defaultRemoteName, s.targetBranch())),
		},
		Force: true,
	})
	if fetchErr != nil && !errors.Is(fetchErr, gogit.NoErrAlreadyUpToDate) {
		return classifyRemoteError("failed to refresh inventory from remote", fetchErr)
	}
	return nil
}

func (s *GitDocumentStore) Push(ctx context.Context, policy inventory.PushPolicy) error {
	if !s.hasRemote() {
		return validationError("push requires remote configuration", nil)
	}

	repo, err := s.openRepositoryForOperation(ctx)
	if err != nil {
		return err
	}

	if err := s.ensureRemote(repo); err != nil {
		return err
	}

	sourceBranch, err := s.currentHeadBranch(repo)
	if err != nil {
		return err
	}
	targetBranch := s.targetBranch()

	auth, err := s.authMethod()
	if err != nil {
		return err
	}

	pushErr := repo.Push(&gogit.PushOptions{
		RemoteName: defaultRemoteName,
		Auth:       auth,
		Force:      policy.Force,
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", sourceBranch, targetBranch)),
		},
	})
	if pushErr != nil && !errors.Is(pushErr, gogit.NoErrAlreadyUpToDate) {
		return classifyRemoteError("failed to push inventory changes", pushErr)
	}
	return nil
}

func (s *GitDocumentStore) SyncStatus(ctx context.Context) (inventory.SyncReport, error) {
	repo, err := s.openRepositoryForOperation(ctx)
	if err != nil {
		return inventory.SyncReport{}, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return inventory.SyncReport{}, internalError("failed to open git worktree", err)
	}
	worktreeStatus, err := worktree.Status()
	if err != nil {
		return inventory.SyncReport{}, internalError("failed to inspect git worktree status", err)
	}

	report := inventory.SyncReport{
		State:          inventory.SyncStateNoRemote,
		Ahead:          0,
		Behind:         0,
		HasUncommitted: !worktreeStatus.IsClean(),
	}

	if !s.hasRemote() {
		return report, nil
	}

	auth, err := s.authMethod()
	if err != nil {
		return inventory.SyncReport{}, err
	}

	fetchErr := repo.Fetch(&gogit.FetchOptions{
		RemoteName: defaultRemoteName,
		Auth:       auth,
		RefSpecs: []gitcfg.RefSpec{
			gitcfg.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", s.targetBranch(), defaultRemoteName, s.targetBranch())),
		},
		Force: true,
	})
	if fetchErr != nil && !errors.Is(fetchErr, gogit.NoErrAlreadyUpToDate) {
		return inventory.SyncReport{}, classifyRemoteError("failed to refresh remote refs for status", fetchErr)
	}

	targetBranch := s.targetBranch()

	localHash, err := s.resolveLocalHash(repo, targetBranch)
	if err != nil {
		return inventory.SyncReport{}, err
	}
	remoteHash, err := s.resolveRemoteHash(repo, targetBranch)
	if err != nil {
		return inventory.SyncReport{}, err
	}

	ahead, behind, err := s.computeAheadBehind(repo, localHash, remoteHash)
	if err != nil {
		return inventory.SyncReport{}, err
	}

	report.Ahead = ahead
	report.Behind = behind
	switch {
	case ahead == 0 && behind == 0:
		report.State = inventory.SyncStateUpToDate
	case ahead > 0 && behind == 0:
		report.State = inventory.SyncStateAhead
	case ahead == 0 && behind > 0:
		report.State = inventory.SyncStateBehind
	default:
		report.State = inventory.SyncStateDiverged
	}

	return report, nil
}

func (s *GitDocumentStore) Check(ctx context.Context) error {
	if err := s.local.Check(ctx); err != nil {
		if !faults.IsCategory(err, faults.NotFoundError) {
			return err
		}
	}

	_, err := s.openRepositoryForOperation(ctx)
	return err
}

func (s *GitDocumentStore) ensureRemote(repo *gogit.Repository) error {
	if !s.hasRemote() {
		return nil
	}

	_, err := repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: defaultRemoteName,
		URLs: []string{s.remote.URL},
	})
	if err == nil {
		return nil
	}
	if !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return internalError("failed to configure git remote", err)
	}

	cfg, cfgErr := repo.Config()
	if cfgErr != nil {
		return internalError("failed to load git config", cfgErr)
	}
	cfg.Remotes[defaultRemoteName] = &gitcfg.RemoteConfig{
		Name: defaultRemoteName,
		URLs: []string{s.remote.URL},
	}
	if setErr := repo.Storer.SetConfig(cfg); setErr != nil {
		return internalError("failed to update git remote config", setErr)
	}
	return nil
}

func (s *GitDocumentStore) ensureInitializedForOperation(ctx context.Context) error {
	_, err := s.openRepositoryForOperation(ctx)
	return err
}

func (s *GitDocumentStore) openRepositoryForOperation(ctx context.Context) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpen(s.baseDir)
	if err == nil {
		return repo, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, internalError("failed to open git repository", err)
	}

	if !s.autoInit {
		return nil, notFoundError("local git inventory is not initialized and inventory.git.local.auto-init is false")
	}

	if initErr := s.Init(ctx); initErr != nil {
		return nil, initErr
	}

	repo, err = gogit.PlainOpen(s.baseDir)
	if err != nil {
		return nil, internalError("failed to open git repository after initialization", err)
	}
	return repo, nil
}

func (s *GitDocumentStore) authMethod() (transport.AuthMethod, error) {
	if s.remote == nil || s.remote.Auth == nil {
		return nil, nil
	}

	auth := s.remote.Auth
	switch {
	case auth.BasicAuth != nil:
		return &httpauth.BasicAuth{
			Username: auth.BasicAuth.Username,
			Password: auth.BasicAuth.Password,
		}, nil
	case auth.AccessKey != nil:
		return &httpauth.BasicAuth{
			Username: "token",
			Password: auth.AccessKey.Token,
		}, nil
	case auth.SSH != nil:
		username := auth.SSH.User
		if username == "" {
			username = "git"
		}

		sshKeys, err := sshauth.NewPublicKeysFromFile(username, auth.SSH.PrivateKeyFile, auth.SSH.Passphrase)
		if err != nil {
			return nil, faults.NewTypedError(faults.AuthError, "failed to load git ssh auth configuration", nil)
		}

		if auth.SSH.InsecureIgnoreHostKey {
			sshKeys.HostKeyCallback = cryptossh.InsecureIgnoreHostKey()
		} else if knownHosts := strings.TrimSpace(auth.SSH.KnownHostsFile); knownHosts != "" {
			callback, callbackErr := sshauth.NewKnownHostsCallback(knownHosts)
			if callbackErr != nil {
				return nil, faults.NewTypedError(faults.AuthError, "failed to load git ssh known hosts", nil)
			}
			sshKeys.HostKeyCallback = callback
		}
		return sshKeys, nil
	default:
		return nil, validationError("git remote auth configuration is invalid", nil)
	}
}

func (s *GitDocumentStore) currentHeadBranch(repo *gogit.Repository) (string, error) {
	head, err := repo.Head()
	if err != nil {
		return "", internalError("failed to resolve git head", err)
	}
	if !head.Name().IsBranch() {
		return "", validationError("cannot push from detached head", nil)
	}
	return head.Name().Short(), nil
}

func (s *GitDocumentStore) resolveLocalHash(repo *gogit.Repository, targetBranch string) (plumbing.Hash, error) {
	branchRef, err := repo.Reference(plumbing.NewBranchReferenceName(targetBranch), true)
	if err == nil {
		return branchRef.Hash(), nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return plumbing.Hash{}, internalError("failed to resolve local branch reference", err)
	}

	headRef, headErr := repo.Head()
	if headErr != nil {
		if errors.Is(headErr, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, nil
		}
		return plumbing.Hash{}, internalError("failed to resolve local head reference", headErr)
	}
	return headRef.Hash(), nil
}

func (s *GitDocumentStore) resolveRemoteHash(repo *gogit.Repository, targetBranch string) (plumbing.Hash, error) {
	remoteRefName := plumbing.ReferenceName(fmt.Sprintf("refs/remotes/%s/%s", defaultRemoteName, targetBranch))
	remoteRef, err := repo.Reference(remoteRefName, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, nil
		}
		return plumbing.Hash{}, internalError("failed to resolve remote branch reference", err)
	}
	return remoteRef.Hash(), nil
}

func (s *GitDocumentStore) computeAheadBehind(repo *gogit.Repository, localHash plumbing.Hash, remoteHash plumbing.Hash) (int, int, error) {
	const (
		markLocal = 1 << iota
		markRemote
	)

	marks := make(map[plumbing.Hash]uint8)
	if err := s.markCommitGraph(repo, localHash, markLocal, marks); err != nil {
		return 0, 0, err
	}
	if err := s.markCommitGraph(repo, remoteHash, markRemote, marks); err != nil {
		return 0, 0, err
	}

	var ahead int
	var behind int
	for _, mark := range marks {
		switch mark {
		case markLocal:
			ahead++
		case markRemote:
			behind++
		}
	}
	return ahead, behind, nil
}

func (s *GitDocumentStore) markCommitGraph(
	repo *gogit.Repository,
	start plumbing.Hash,
	mark uint8,
	marks map[plumbing.Hash]uint8,
) error {
	if start == plumbing.ZeroHash {
		return nil
	}

	stack := []plumbing.Hash{start}
	for len(stack) > 0 {
		last := len(stack) - 1
		hash := stack[last]
		stack = stack[:last]

		currentMark := marks[hash]
		if currentMark&mark != 0 {
			continue
		}

		commit, err := repo.CommitObject(hash)
		if err != nil {
			return internalError("failed to load git commit for status", err)
		}
		marks[hash] = currentMark | mark
		stack = append(stack, commit.ParentHashes...)
	}

	return nil
}

func (s *GitDocumentStore) hasRemote() bool {
	return s.remote != nil && strings.TrimSpace(s.remote.URL) != ""
}

func (s *GitDocumentStore) targetBranch() string {
	if s.remote != nil && strings.TrimSpace(s.remote.Branch) != "" {
		return strings.TrimSpace(s.remote.Branch)
	}
	return defaultBranchName
}

func commitRecordFromObject(commit *object.Commit) inventory.CommitRecord {
	message := strings.ReplaceAll(commit.Message, "\r\n", "\n")
	subject := message
	if idx := strings.Index(message, "\n"); idx >= 0 {
		subject = message[:idx]
	}

	return inventory.CommitRecord{
		Hash:    commit.Hash.String(),
		Author:  strings.TrimSpace(commit.Author.Name),
		Message: strings.TrimSpace(subject),
		When:    commit.Author.When,
	}
}

func classifyRemoteError(message string, err error) error {
	lower := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired) ||
		strings.Contains(lower, "authentication") ||
		strings.Contains(lower, "permission denied"):
		return faults.NewTypedError(faults.AuthError, message, nil)
	case strings.Contains(lower, "non-fast-forward") ||
		strings.Contains(lower, "fetch first") ||
		strings.Contains(lower, "rejected"):
		return faults.NewTypedError(faults.ConflictError, message, nil)
	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "tls") ||
		strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network"):
		return faults.NewTypedError(faults.TransportError, message, nil)
	default:
		return faults.NewTypedError(faults.InternalError, message, nil)
	}
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
