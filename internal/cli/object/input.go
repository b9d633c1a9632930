package object

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

// specFlags collects the per-kind spec flag values an apply command binds.
// Only the fields matching the command's kind are ever populated.
type specFlags struct {
	description         string
	conjunction         string
	conditions          []string
	memberPaths         []string
	haMode              string
	failoverMode        string
	transitSubnets      []string
	tier0Path           string
	routeAdvertisements []string
	tags                []string
}

var specFlagNames = []string{
	"description",
	"tag",
	"conjunction",
	"condition",
	"member-path",
	"ha-mode",
	"failover-mode",
	"transit-subnet",
	"tier0-path",
	"route-advertisement",
}

func bindSpecFlags(command *cobra.Command, kind resource.Kind, flags *specFlags) {
	command.Flags().StringVar(&flags.description, "description", "", "object description")
	command.Flags().StringArrayVar(&flags.tags, "tag", nil, "tag as TAG or SCOPE=TAG (repeatable)")

	switch kind {
	case resource.KindGroup:
		command.Flags().StringVar(&flags.conjunction, "conjunction", "", "conjunction between expressions: AND or OR")
		common.RegisterStaticFlagCompletion(command, "conjunction", []string{"AND", "OR"})
		command.Flags().StringArrayVar(&flags.conditions, "condition", nil,
			"membership condition as MEMBER-TYPE:KEY:OPERATOR:VALUE (repeatable)")
		command.Flags().StringArrayVar(&flags.memberPaths, "member-path", nil, "member policy path (repeatable)")
	case resource.KindTier0:
		command.Flags().StringVar(&flags.haMode, "ha-mode", "", "high availability mode: ACTIVE_ACTIVE or ACTIVE_STANDBY")
		common.RegisterStaticFlagCompletion(command, "ha-mode", []string{"ACTIVE_ACTIVE", "ACTIVE_STANDBY"})
		command.Flags().StringVar(&flags.failoverMode, "failover-mode", "",
			"failover mode: PREEMPTIVE or NON_PREEMPTIVE (ACTIVE_STANDBY only)")
		common.RegisterStaticFlagCompletion(command, "failover-mode", []string{"PREEMPTIVE", "NON_PREEMPTIVE"})
		command.Flags().StringArrayVar(&flags.transitSubnets, "transit-subnet", nil, "transit subnet CIDR (repeatable)")
	case resource.KindTier1:
		command.Flags().StringVar(&flags.tier0Path, "tier0-path", "", "path of the tier-0 gateway to connect to")
		command.Flags().StringArrayVar(&flags.routeAdvertisements, "route-advertisement", nil,
			"route advertisement type (repeatable)")
	}
}

func changedSpecFlags(command *cobra.Command) []string {
	changed := make([]string, 0)
	for _, name := range specFlagNames {
		if flag := command.Flags().Lookup(name); flag != nil && flag.Changed {
			changed = append(changed, "--"+name)
		}
	}
	return changed
}

// resolveApplyDocument builds the document an apply command reconciles. With
// file or stdin input the data wins and spec flags are rejected; without it
// the positional name plus the kind's spec flags describe the object.
func resolveApplyDocument(
	command *cobra.Command,
	kind resource.Kind,
	args []string,
	input common.InputFlags,
	flags specFlags,
) (resource.Document, error) {
	data, err := common.ReadOptionalInput(command, input)
	if err != nil {
		return resource.Document{}, err
	}

	if len(data) > 0 {
		if changed := changedSpecFlags(command); len(changed) > 0 {
			return resource.Document{}, common.ValidationError(
				fmt.Sprintf("spec flags (%s) cannot be combined with file input", strings.Join(changed, ", ")),
				nil,
			)
		}
		if err := validateSpecInputFormat(data, input.Format); err != nil {
			return resource.Document{}, err
		}
		document, err := decodeApplyInput(kind, data)
		if err != nil {
			return resource.Document{}, err
		}
		if len(args) > 0 {
			requested := strings.TrimSpace(args[0])
			if requested != "" && requested != document.Spec.DisplayName() {
				return resource.Document{}, common.ValidationError(
					"name mismatch between positional argument and spec input",
					nil,
				)
			}
		}
		return document, nil
	}

	name, err := resolveNameArg(kind, args)
	if err != nil {
		return resource.Document{}, err
	}
	spec, err := specFromFlags(kind, name, flags)
	if err != nil {
		return resource.Document{}, err
	}
	return resource.Document{Kind: kind, Spec: spec}, nil
}

// decodeApplyInput accepts either a full document (kind envelope plus spec)
// or a bare spec block. A spec block never carries a kind key, so the probe
// is unambiguous.
func decodeApplyInput(kind resource.Kind, data []byte) (resource.Document, error) {
	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return resource.Document{}, common.ValidationError("invalid spec input", err)
	}

	if _, hasKind := probe["kind"]; hasKind {
		document, err := resource.ParseDocument(data)
		if err != nil {
			return resource.Document{}, err
		}
		if document.Kind != kind {
			return resource.Document{}, common.ValidationError(
				fmt.Sprintf("document kind %q does not match the %s command", document.Kind, kind),
				nil,
			)
		}
		return document, nil
	}

	spec, err := resource.ParseSpec(kind, data)
	if err != nil {
		return resource.Document{}, err
	}
	return resource.Document{Kind: kind, Spec: spec}, nil
}

func validateSpecInputFormat(data []byte, format string) error {
	switch format {
	case "", common.OutputYAML:
		return nil
	case common.OutputJSON:
		if !json.Valid(data) {
			return common.ValidationError("invalid json input", nil)
		}
		return nil
	default:
		return common.ValidationError("invalid input format: use json or yaml", nil)
	}
}

func specFromFlags(kind resource.Kind, name string, flags specFlags) (resource.Spec, error) {
	tags, err := parseTagFlags(flags.tags)
	if err != nil {
		return nil, err
	}

	var spec resource.Spec
	switch kind {
	case resource.KindGroup:
		expressions, exprErr := parseGroupExpressionFlags(flags.conditions, flags.memberPaths)
		if exprErr != nil {
			return nil, exprErr
		}
		spec = resource.GroupSpec{
			Name:        name,
			Description: flags.description,
			Conjunction: strings.TrimSpace(flags.conjunction),
			Expressions: expressions,
			Tags:        tags,
		}
	case resource.KindTier0:
		spec = resource.Tier0GatewaySpec{
			Name:           name,
			Description:    flags.description,
			HAMode:         strings.TrimSpace(flags.haMode),
			FailoverMode:   strings.TrimSpace(flags.failoverMode),
			TransitSubnets: flags.transitSubnets,
			Tags:           tags,
		}
	case resource.KindTier1:
		spec = resource.Tier1GatewaySpec{
			Name:                    name,
			Description:             flags.description,
			Tier0Path:               strings.TrimSpace(flags.tier0Path),
			RouteAdvertisementTypes: flags.routeAdvertisements,
			Tags:                    tags,
		}
	default:
		return nil, common.ValidationError(fmt.Sprintf("unknown resource kind %q", kind), nil)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func parseTagFlags(values []string) ([]resource.Tag, error) {
	if len(values) == 0 {
		return nil, nil
	}

	tags := make([]resource.Tag, 0, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil, common.ValidationError("flag --tag contains an empty value", nil)
		}
		scope, tag, hasScope := strings.Cut(trimmed, "=")
		if !hasScope {
			tags = append(tags, resource.Tag{Tag: trimmed})
			continue
		}
		if strings.TrimSpace(tag) == "" {
			return nil, common.ValidationError(fmt.Sprintf("invalid tag %q: use TAG or SCOPE=TAG", value), nil)
		}
		tags = append(tags, resource.Tag{Scope: strings.TrimSpace(scope), Tag: strings.TrimSpace(tag)})
	}
	return tags, nil
}

// parseGroupExpressionFlags turns --condition values into condition
// expressions and collects every --member-path into one path expression.
func parseGroupExpressionFlags(conditions []string, memberPaths []string) ([]resource.Expression, error) {
	expressions := make([]resource.Expression, 0, len(conditions)+1)
	for _, value := range conditions {
		parts := strings.SplitN(strings.TrimSpace(value), ":", 4)
		if len(parts) != 4 {
			return nil, common.ValidationError(
				fmt.Sprintf("invalid condition %q: use MEMBER-TYPE:KEY:OPERATOR:VALUE", value),
				nil,
			)
		}
		expressions = append(expressions, resource.Expression{
			MemberType: strings.TrimSpace(parts[0]),
			Key:        strings.TrimSpace(parts[1]),
			Operator:   strings.TrimSpace(parts[2]),
			Value:      strings.TrimSpace(parts[3]),
		})
	}

	if len(memberPaths) > 0 {
		paths := make([]string, 0, len(memberPaths))
		for _, path := range memberPaths {
			paths = append(paths, strings.TrimSpace(path))
		}
		expressions = append(expressions, resource.Expression{Paths: paths})
	}

	if len(expressions) == 0 {
		return nil, nil
	}
	return expressions, nil
}
