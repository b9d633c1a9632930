package resource

import (
	"fmt"

	"github.com/fiesolecouk/declansx/faults"
)

// SpecFromRemote rebuilds a typed spec from a remote object so it can be
// saved as a local document. Server bookkeeping fields are dropped; only the
// fields a spec owns survive the round trip.
func SpecFromRemote(kind Kind, remote RemoteObject) (Spec, error) {
	switch kind {
	case KindGroup:
		clauses, conjunction := projectRemoteExpressions(remote.Raw["expression"])
		spec := GroupSpec{
			Name:        remote.DisplayName,
			Description: remote.Description,
			Expressions: expressionsFromClauses(clauses),
			Tags:        tagsFromAny(remote.Raw["tags"]),
		}
		if len(spec.Expressions) > 1 && conjunction == conjunctionAnd {
			spec.Conjunction = conjunctionAnd
		}
		return spec, nil
	case KindTier0:
		haMode, _ := LookupScalarAttribute(remote.Raw, "ha_mode")
		spec := Tier0GatewaySpec{
			Name:           remote.DisplayName,
			Description:    remote.Description,
			HAMode:         haMode,
			TransitSubnets: stringSliceFromAny(remote.Raw["transit_subnets"]),
			Tags:           tagsFromAny(remote.Raw["tags"]),
		}
		if haMode == haModeActiveStandby {
			spec.FailoverMode, _ = LookupScalarAttribute(remote.Raw, "failover_mode")
		}
		return spec, nil
	case KindTier1:
		tier0Path, _ := LookupScalarAttribute(remote.Raw, "tier0_path")
		return Tier1GatewaySpec{
			Name:                    remote.DisplayName,
			Description:             remote.Description,
			Tier0Path:               tier0Path,
			RouteAdvertisementTypes: stringSliceFromAny(remote.Raw["route_advertisement_types"]),
			Tags:                    tagsFromAny(remote.Raw["tags"]),
		}, nil
	}
	return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("unhandled kind %q", kind), nil)
}

func expressionsFromClauses(clauses []any) []Expression {
	expressions := make([]Expression, 0, len(clauses))
	for _, clause := range clauses {
		clauseMap, ok := clause.(map[string]any)
		if !ok {
			continue
		}

		if paths := stringSliceFromAny(clauseMap["paths"]); len(paths) > 0 {
			expressions = append(expressions, Expression{Paths: paths})
			continue
		}

		expr := Expression{}
		expr.MemberType, _ = LookupScalarAttribute(clauseMap, "member_type")
		expr.Key, _ = LookupScalarAttribute(clauseMap, "key")
		expr.Operator, _ = LookupScalarAttribute(clauseMap, "operator")
		expr.Value, _ = LookupScalarAttribute(clauseMap, "value")
		if expr.isCondition() {
			expressions = append(expressions, expr)
		}
	}
	if len(expressions) == 0 {
		return nil
	}
	return expressions
}

func tagsFromAny(value any) []Tag {
	entries := anyList(value)
	tags := make([]Tag, 0, len(entries))
	for _, entry := range entries {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		tag := Tag{}
		tag.Tag, _ = LookupScalarAttribute(entryMap, "tag")
		tag.Scope, _ = LookupScalarAttribute(entryMap, "scope")
		if tag.Tag != "" {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}

func stringSliceFromAny(value any) []string {
	entries := anyList(value)
	values := make([]string, 0, len(entries))
	for _, entry := range entries {
		if scalar, ok := scalarString(entry); ok {
			values = append(values, scalar)
		}
	}
	if len(values) == 0 {
		return nil
	}
	return values
}
