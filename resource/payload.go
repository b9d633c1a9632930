package resource

import "strings"

// Payload builders emit the complete NSX policy wire body for each kind.
// Optional fields left empty are omitted so the manager applies its own
// defaults; enum fields that feed the comparison are always emitted with
// their effective value to keep create-then-apply convergent.

func (s GroupSpec) Payload() map[string]any {
	payload := map[string]any{
		"resource_type": "Group",
		"display_name":  s.Name,
	}
	if s.Description != "" {
		payload["description"] = s.Description
	}
	if expressions := buildExpressionList(s.Expressions, s.effectiveConjunction()); len(expressions) > 0 {
		payload["expression"] = expressions
	}
	if tags := buildTagList(s.Tags); len(tags) > 0 {
		payload["tags"] = tags
	}
	return payload
}

func (s GroupSpec) effectiveConjunction() string {
	if conj := strings.TrimSpace(s.Conjunction); conj != "" {
		return conj
	}
	return conjunctionOr
}

func (s Tier0GatewaySpec) Payload() map[string]any {
	payload := map[string]any{
		"resource_type": "Tier0",
		"display_name":  s.Name,
		"ha_mode":       s.effectiveHAMode(),
	}
	if s.Description != "" {
		payload["description"] = s.Description
	}
	if failover := s.effectiveFailoverMode(); failover != "" {
		payload["failover_mode"] = failover
	}
	if len(s.TransitSubnets) > 0 {
		subnets := make([]any, 0, len(s.TransitSubnets))
		for _, subnet := range s.TransitSubnets {
			subnets = append(subnets, strings.TrimSpace(subnet))
		}
		payload["transit_subnets"] = subnets
	}
	if tags := buildTagList(s.Tags); len(tags) > 0 {
		payload["tags"] = tags
	}
	return payload
}

func (s Tier0GatewaySpec) effectiveFailoverMode() string {
	if s.effectiveHAMode() != haModeActiveStandby {
		return ""
	}
	if failover := strings.TrimSpace(s.FailoverMode); failover != "" {
		return failover
	}
	return failoverNonPreemptive
}

func (s Tier1GatewaySpec) Payload() map[string]any {
	payload := map[string]any{
		"resource_type": "Tier1",
		"display_name":  s.Name,
	}
	if s.Description != "" {
		payload["description"] = s.Description
	}
	if tier0 := strings.TrimSpace(s.Tier0Path); tier0 != "" {
		payload["tier0_path"] = tier0
	}
	if len(s.RouteAdvertisementTypes) > 0 {
		advertisements := make([]any, 0, len(s.RouteAdvertisementTypes))
		for _, advertisement := range s.RouteAdvertisementTypes {
			advertisements = append(advertisements, strings.TrimSpace(advertisement))
		}
		payload["route_advertisement_types"] = advertisements
	}
	if tags := buildTagList(s.Tags); len(tags) > 0 {
		payload["tags"] = tags
	}
	return payload
}

func buildExpressionList(expressions []Expression, conjunction string) []any {
	entries := make([]any, 0, len(expressions)*2)
	for _, expr := range expressions {
		if len(entries) > 0 {
			entries = append(entries, map[string]any{
				"resource_type":        "ConjunctionOperator",
				"conjunction_operator": conjunction,
			})
		}
		entries = append(entries, buildExpressionEntry(expr))
	}
	return entries
}

func buildExpressionEntry(expr Expression) map[string]any {
	if expr.isPathExpression() {
		paths := make([]any, 0, len(expr.Paths))
		for _, path := range expr.Paths {
			paths = append(paths, strings.TrimSpace(path))
		}
		return map[string]any{
			"resource_type": "PathExpression",
			"paths":         paths,
		}
	}
	return map[string]any{
		"resource_type": "Condition",
		"member_type":   strings.TrimSpace(expr.MemberType),
		"key":           strings.TrimSpace(expr.Key),
		"operator":      strings.TrimSpace(expr.Operator),
		"value":         strings.TrimSpace(expr.Value),
	}
}

func buildTagList(tags []Tag) []any {
	entries := make([]any, 0, len(tags))
	for _, tag := range tags {
		entry := map[string]any{"tag": strings.TrimSpace(tag.Tag)}
		if scope := strings.TrimSpace(tag.Scope); scope != "" {
			entry["scope"] = scope
		}
		entries = append(entries, entry)
	}
	return entries
}
