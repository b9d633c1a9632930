package resource

import (
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
)

// Spec is the caller's intended state for one named object. Implementations
// are immutable value types validated locally before any remote call.
type Spec interface {
	Kind() Kind
	DisplayName() string
	Validate() error
	// Payload builds the full-replace wire body carrying every field the spec
	// owns. Updates send this complete set, never a partial patch.
	Payload() map[string]any
}

// Expression is one group membership clause: either a match condition
// (member type + key/operator/value) or a list of policy paths. Exactly one
// shape must be populated. Clauses compare with set semantics.
type Expression struct {
	MemberType string   `yaml:"member-type,omitempty" json:"member-type,omitempty"`
	Key        string   `yaml:"key,omitempty" json:"key,omitempty"`
	Operator   string   `yaml:"operator,omitempty" json:"operator,omitempty"`
	Value      string   `yaml:"value,omitempty" json:"value,omitempty"`
	Paths      []string `yaml:"paths,omitempty" json:"paths,omitempty"`
}

func (e Expression) isCondition() bool {
	return e.MemberType != "" || e.Key != "" || e.Operator != "" || e.Value != ""
}

func (e Expression) isPathExpression() bool {
	return len(e.Paths) > 0
}

type GroupSpec struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Conjunction string       `yaml:"conjunction,omitempty"`
	Expressions []Expression `yaml:"expressions,omitempty"`
	Tags        []Tag        `yaml:"tags,omitempty"`
}

type Tier0GatewaySpec struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description,omitempty"`
	HAMode         string   `yaml:"ha-mode,omitempty"`
	FailoverMode   string   `yaml:"failover-mode,omitempty"`
	TransitSubnets []string `yaml:"transit-subnets,omitempty"`
	Tags           []Tag    `yaml:"tags,omitempty"`
}

type Tier1GatewaySpec struct {
	Name                    string   `yaml:"name"`
	Description             string   `yaml:"description,omitempty"`
	Tier0Path               string   `yaml:"tier0-path,omitempty"`
	RouteAdvertisementTypes []string `yaml:"route-advertisement-types,omitempty"`
	Tags                    []Tag    `yaml:"tags,omitempty"`
}

func (s GroupSpec) Kind() Kind          { return KindGroup }
func (s GroupSpec) DisplayName() string { return s.Name }

func (s Tier0GatewaySpec) Kind() Kind          { return KindTier0 }
func (s Tier0GatewaySpec) DisplayName() string { return s.Name }

func (s Tier1GatewaySpec) Kind() Kind          { return KindTier1 }
func (s Tier1GatewaySpec) DisplayName() string { return s.Name }

const (
	conjunctionAnd = "AND"
	conjunctionOr  = "OR"

	haModeActiveActive  = "ACTIVE_ACTIVE"
	haModeActiveStandby = "ACTIVE_STANDBY"

	failoverPreemptive    = "PREEMPTIVE"
	failoverNonPreemptive = "NON_PREEMPTIVE"
)

var conditionOperators = map[string]bool{
	"EQUALS":     true,
	"NOTEQUALS":  true,
	"CONTAINS":   true,
	"STARTSWITH": true,
	"ENDSWITH":   true,
	"IN":         true,
	"NOTIN":      true,
	"MATCHES":    true,
}

var conditionMemberTypes = map[string]bool{
	"VirtualMachine":   true,
	"VirtualInterface": true,
	"IPSet":            true,
	"Segment":          true,
	"SegmentPort":      true,
	"LogicalPort":      true,
	"LogicalSwitch":    true,
	"Group":            true,
}

var routeAdvertisementTypes = map[string]bool{
	"TIER1_STATIC_ROUTES":        true,
	"TIER1_CONNECTED":            true,
	"TIER1_NAT":                  true,
	"TIER1_LB_VIP":               true,
	"TIER1_LB_SNAT":              true,
	"TIER1_DNS_FORWARDER_IP":     true,
	"TIER1_IPSEC_LOCAL_ENDPOINT": true,
}

func (s GroupSpec) Validate() error {
	if err := validateDisplayName(s.Name); err != nil {
		return err
	}
	if conj := strings.TrimSpace(s.Conjunction); conj != "" && conj != conjunctionAnd && conj != conjunctionOr {
		return validationError(fmt.Sprintf("group %q: conjunction must be AND or OR, got %q", s.Name, s.Conjunction))
	}
	for idx, expr := range s.Expressions {
		if err := validateExpression(s.Name, idx, expr); err != nil {
			return err
		}
	}
	return validateTags(s.Name, s.Tags)
}

func (s Tier0GatewaySpec) Validate() error {
	if err := validateDisplayName(s.Name); err != nil {
		return err
	}

	haMode := strings.TrimSpace(s.HAMode)
	if haMode != "" && haMode != haModeActiveActive && haMode != haModeActiveStandby {
		return validationError(fmt.Sprintf("tier-0 %q: ha-mode must be ACTIVE_ACTIVE or ACTIVE_STANDBY, got %q", s.Name, s.HAMode))
	}

	failover := strings.TrimSpace(s.FailoverMode)
	if failover != "" {
		if failover != failoverPreemptive && failover != failoverNonPreemptive {
			return validationError(fmt.Sprintf("tier-0 %q: failover-mode must be PREEMPTIVE or NON_PREEMPTIVE, got %q", s.Name, s.FailoverMode))
		}
		if s.effectiveHAMode() == haModeActiveActive {
			return validationError(fmt.Sprintf("tier-0 %q: failover-mode applies only to ACTIVE_STANDBY gateways", s.Name))
		}
	}

	for _, subnet := range s.TransitSubnets {
		if !strings.Contains(strings.TrimSpace(subnet), "/") {
			return validationError(fmt.Sprintf("tier-0 %q: transit subnet %q is not a CIDR", s.Name, subnet))
		}
	}
	return validateTags(s.Name, s.Tags)
}

func (s Tier1GatewaySpec) Validate() error {
	if err := validateDisplayName(s.Name); err != nil {
		return err
	}

	if tier0 := strings.TrimSpace(s.Tier0Path); tier0 != "" && !strings.HasPrefix(tier0, "/infra/tier-0s/") {
		return validationError(fmt.Sprintf("tier-1 %q: tier0-path must look like /infra/tier-0s/<id>, got %q", s.Name, s.Tier0Path))
	}
	for _, advertisement := range s.RouteAdvertisementTypes {
		if !routeAdvertisementTypes[strings.TrimSpace(advertisement)] {
			return validationError(fmt.Sprintf("tier-1 %q: unknown route advertisement type %q", s.Name, advertisement))
		}
	}
	return validateTags(s.Name, s.Tags)
}

func (s Tier0GatewaySpec) effectiveHAMode() string {
	if mode := strings.TrimSpace(s.HAMode); mode != "" {
		return mode
	}
	return haModeActiveActive
}

func validateDisplayName(name string) error {
	if strings.TrimSpace(name) == "" {
		return validationError("display name is required")
	}
	return nil
}

func validateExpression(group string, idx int, expr Expression) error {
	condition := expr.isCondition()
	pathExpr := expr.isPathExpression()

	switch {
	case condition && pathExpr:
		return validationError(fmt.Sprintf("group %q: expression %d mixes a condition with paths", group, idx))
	case !condition && !pathExpr:
		return validationError(fmt.Sprintf("group %q: expression %d is empty", group, idx))
	case pathExpr:
		for _, path := range expr.Paths {
			if !strings.HasPrefix(strings.TrimSpace(path), "/infra/") {
				return validationError(fmt.Sprintf("group %q: expression %d path %q must be a policy path", group, idx, path))
			}
		}
		return nil
	}

	if !conditionMemberTypes[strings.TrimSpace(expr.MemberType)] {
		return validationError(fmt.Sprintf("group %q: expression %d has unknown member type %q", group, idx, expr.MemberType))
	}
	if strings.TrimSpace(expr.Key) == "" {
		return validationError(fmt.Sprintf("group %q: expression %d is missing a key", group, idx))
	}
	if !conditionOperators[strings.TrimSpace(expr.Operator)] {
		return validationError(fmt.Sprintf("group %q: expression %d has unknown operator %q", group, idx, expr.Operator))
	}
	if strings.TrimSpace(expr.Value) == "" {
		return validationError(fmt.Sprintf("group %q: expression %d is missing a value", group, idx))
	}
	return nil
}

func validateTags(name string, tags []Tag) error {
	for idx, tag := range tags {
		if strings.TrimSpace(tag.Tag) == "" {
			return validationError(fmt.Sprintf("%q: tag %d is missing a value", name, idx))
		}
	}
	return nil
}

func validationError(message string) error {
	return faults.NewTypedError(faults.ValidationError, message, nil)
}
