package resource

type Value = any

// Tag is one NSX tag pair. Tags compare with set semantics: ordering never
// matters, duplicates collapse.
type Tag struct {
	Scope string `yaml:"scope,omitempty" json:"scope,omitempty"`
	Tag   string `yaml:"tag" json:"tag"`
}

// FieldDiff records one field that differs between a desired spec and the
// remote object it was compared against.
type FieldDiff struct {
	Field   string `yaml:"field" json:"field"`
	Desired Value  `yaml:"desired" json:"desired"`
	Remote  Value  `yaml:"remote" json:"remote"`
}

// ComparisonResult is the transient outcome of Compare: Matches plus the
// exact fields that differ. It is never persisted.
type ComparisonResult struct {
	Matches bool        `yaml:"matches" json:"matches"`
	Diffs   []FieldDiff `yaml:"diffs,omitempty" json:"diffs,omitempty"`
}

// DiffEntry is one pointer-path difference between a desired payload and the
// remote payload, as rendered by the diff commands.
type DiffEntry struct {
	Object    string `yaml:"object,omitempty" json:"object,omitempty"`
	Path      string `yaml:"path" json:"path"`
	Operation string `yaml:"op" json:"op"`
	Desired   Value  `yaml:"desired,omitempty" json:"desired,omitempty"`
	Remote    Value  `yaml:"remote,omitempty" json:"remote,omitempty"`
}
