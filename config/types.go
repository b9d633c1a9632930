package config

// ContextSelection names the catalog context a command runs against, plus
// any one-shot field overrides supplied on the command line.
type ContextSelection struct {
	Name      string
	Overrides map[string]string
}

const (
	ConfigFileEnvVar          = "DECLANSX_CONFIG"
	ContextNameEnvVar         = "DECLANSX_CONTEXT"
	DefaultContextCatalogPath = "~/.declansx/config.yaml"

	DocumentFormatYAML = "yaml"
	DocumentFormatJSON = "json"
)

type ContextCatalog struct {
	Contexts      []Context `yaml:"contexts"`
	CurrentCtx    string    `yaml:"current-ctx"`
	DefaultEditor string    `yaml:"default-editor,omitempty"`
}

// Context is one named NSX manager target with its inventory, secret store
// and per-context defaults.
type Context struct {
	Name        string       `yaml:"name"`
	Manager     Manager      `yaml:"manager"`
	Inventory   Inventory    `yaml:"inventory"`
	SecretStore *SecretStore `yaml:"secret-store,omitempty"`
	Defaults    Defaults     `yaml:"defaults,omitempty"`
}

// Manager describes how to reach one NSX manager. Credential fields accept
// secret references ("secret:<name>") resolved at session build time.
type Manager struct {
	BaseURL        string            `yaml:"base-url"`
	Auth           *ManagerAuth      `yaml:"auth,omitempty"`
	TLS            *TLS              `yaml:"tls,omitempty"`
	DefaultHeaders map[string]string `yaml:"default-headers,omitempty"`
	RateLimit      float64           `yaml:"rate-limit,omitempty"`
	TimeoutSeconds int               `yaml:"timeout-seconds,omitempty"`
	MinVersion     string            `yaml:"min-version,omitempty"`
}

// ManagerAuth selects exactly one NSX authentication mode.
type ManagerAuth struct {
	BasicAuth    *BasicAuth        `yaml:"basic-auth,omitempty"`
	BearerToken  *BearerTokenAuth  `yaml:"bearer-token,omitempty"`
	SessionToken *SessionTokenAuth `yaml:"session-token,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type BearerTokenAuth struct {
	Token string `yaml:"token"`
}

// SessionTokenAuth drives the NSX session create flow: credentials are
// exchanged once for a session cookie plus XSRF token, then reused.
type SessionTokenAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Inventory struct {
	Format     string               `yaml:"format,omitempty"`
	Git        *GitInventory        `yaml:"git,omitempty"`
	Filesystem *FilesystemInventory `yaml:"filesystem,omitempty"`
}

type GitInventory struct {
	Local  GitLocal   `yaml:"local"`
	Remote *GitRemote `yaml:"remote,omitempty"`
}

type GitLocal struct {
	BaseDir  string `yaml:"base-dir"`
	AutoInit *bool  `yaml:"auto-init,omitempty"`
}

func (g GitLocal) AutoInitEnabled() bool {
	return g.AutoInit == nil || *g.AutoInit
}

type GitRemote struct {
	URL      string   `yaml:"url"`
	Branch   string   `yaml:"branch,omitempty"`
	AutoSync bool     `yaml:"auto-sync,omitempty"`
	Auth     *GitAuth `yaml:"auth,omitempty"`
}

type GitAuth struct {
	BasicAuth *BasicAuth     `yaml:"basic-auth,omitempty"`
	SSH       *SSHAuth       `yaml:"ssh,omitempty"`
	AccessKey *AccessKeyAuth `yaml:"access-key,omitempty"`
}

type SSHAuth struct {
	User                  string `yaml:"user"`
	PrivateKeyFile        string `yaml:"private-key-file"`
	Passphrase            string `yaml:"passphrase,omitempty"`
	KnownHostsFile        string `yaml:"known-hosts-file,omitempty"`
	InsecureIgnoreHostKey bool   `yaml:"insecure-ignore-host-key,omitempty"`
}

type AccessKeyAuth struct {
	Token string `yaml:"token"`
}

type FilesystemInventory struct {
	BaseDir string `yaml:"base-dir"`
}

type SecretStore struct {
	File *FileSecretStore `yaml:"file,omitempty"`
}

// FileSecretStore encrypts credentials at rest. Exactly one of Key, KeyFile,
// Passphrase or PassphraseFile must be set.
type FileSecretStore struct {
	Path           string `yaml:"path"`
	Key            string `yaml:"key,omitempty"`
	KeyFile        string `yaml:"key-file,omitempty"`
	Passphrase     string `yaml:"passphrase,omitempty"`
	PassphraseFile string `yaml:"passphrase-file,omitempty"`
	KDF            *KDF   `yaml:"kdf,omitempty"`
}

type KDF struct {
	Time    int `yaml:"time,omitempty"`
	Memory  int `yaml:"memory,omitempty"`
	Threads int `yaml:"threads,omitempty"`
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	ClientCertFile     string `yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `yaml:"client-key-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

// Defaults are per-context fallbacks applied when a command does not pick a
// value explicitly.
type Defaults struct {
	Domain string `yaml:"domain,omitempty"`
	Output string `yaml:"output,omitempty"`
}
