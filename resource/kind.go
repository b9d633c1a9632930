package resource

import (
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
)

// Kind names one NSX policy object category managed by this tool. Each kind
// has its own remote collection and field schema.
type Kind string

const (
	KindGroup Kind = "group"
	KindTier0 Kind = "tier0"
	KindTier1 Kind = "tier1"
)

func Kinds() []Kind {
	return []Kind{KindGroup, KindTier0, KindTier1}
}

func (k Kind) String() string {
	return string(k)
}

// DomainScoped reports whether objects of this kind live under a policy
// domain. Gateways are infra-scoped and reject a domain selection.
func (k Kind) DomainScoped() bool {
	return k == KindGroup
}

func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "group", "groups":
		return KindGroup, nil
	case "tier0", "tier-0", "tier0-gateway", "tier-0-gateway":
		return KindTier0, nil
	case "tier1", "tier-1", "tier1-gateway", "tier-1-gateway":
		return KindTier1, nil
	}
	return "", faults.NewTypedError(
		faults.ValidationError,
		fmt.Sprintf("unknown resource kind %q (expected group, tier0 or tier1)", strings.TrimSpace(value)),
		nil,
	)
}

// DefaultDomain is the policy domain NSX provisions out of the box. Group
// operations fall back to it when the caller does not pick a domain.
const DefaultDomain = "default"
