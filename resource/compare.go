package resource

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
)

// Compare decides whether a remote object already satisfies the desired spec.
// Scalars compare directly with empty-equals-absent semantics; unordered
// collections (expressions, tags, subnet and advertisement lists) compare as
// multisets, never positionally. Remote list entries are projected down to
// the fields the spec owns before comparing, so server-populated bookkeeping
// (ids, paths, revisions) never registers as drift.
func Compare(desired Spec, remote RemoteObject) (ComparisonResult, error) {
	switch spec := desired.(type) {
	case GroupSpec:
		return compareGroup(spec, remote)
	case Tier0GatewaySpec:
		return compareTier0(spec, remote)
	case Tier1GatewaySpec:
		return compareTier1(spec, remote)
	}
	return ComparisonResult{}, faults.NewTypedError(
		faults.InternalError,
		fmt.Sprintf("unsupported spec type %T", desired),
		nil,
	)
}

func compareGroup(spec GroupSpec, remote RemoteObject) (ComparisonResult, error) {
	diffs := appendScalarDiff(nil, "description", spec.Description, remote.Description)

	desiredExpressions := make([]any, 0, len(spec.Expressions))
	for _, expr := range spec.Expressions {
		desiredExpressions = append(desiredExpressions, buildExpressionEntry(expr))
	}
	remoteExpressions, remoteConjunction := projectRemoteExpressions(remote.Raw["expression"])

	var err error
	diffs, err = appendSetDiff(diffs, "expressions", desiredExpressions, remoteExpressions)
	if err != nil {
		return ComparisonResult{}, err
	}

	if len(spec.Expressions) > 1 {
		if remoteConjunction == "" {
			remoteConjunction = conjunctionOr
		}
		diffs = appendScalarDiff(diffs, "conjunction", spec.effectiveConjunction(), remoteConjunction)
	}

	diffs, err = appendTagDiff(diffs, spec.Tags, remote)
	if err != nil {
		return ComparisonResult{}, err
	}
	return comparisonResult(diffs), nil
}

func compareTier0(spec Tier0GatewaySpec, remote RemoteObject) (ComparisonResult, error) {
	diffs := appendScalarDiff(nil, "description", spec.Description, remote.Description)

	remoteHAMode, _ := LookupScalarAttribute(remote.Raw, "ha_mode")
	if remoteHAMode == "" {
		remoteHAMode = haModeActiveActive
	}
	diffs = appendScalarDiff(diffs, "ha-mode", spec.effectiveHAMode(), remoteHAMode)

	if failover := spec.effectiveFailoverMode(); failover != "" {
		remoteFailover, _ := LookupScalarAttribute(remote.Raw, "failover_mode")
		diffs = appendScalarDiff(diffs, "failover-mode", failover, remoteFailover)
	}

	var err error
	if len(spec.TransitSubnets) > 0 {
		diffs, err = appendSetDiff(diffs, "transit-subnets",
			trimmedStringList(spec.TransitSubnets), anyList(remote.Raw["transit_subnets"]))
		if err != nil {
			return ComparisonResult{}, err
		}
	}

	diffs, err = appendTagDiff(diffs, spec.Tags, remote)
	if err != nil {
		return ComparisonResult{}, err
	}
	return comparisonResult(diffs), nil
}

func compareTier1(spec Tier1GatewaySpec, remote RemoteObject) (ComparisonResult, error) {
	diffs := appendScalarDiff(nil, "description", spec.Description, remote.Description)

	remoteTier0, _ := LookupScalarAttribute(remote.Raw, "tier0_path")
	diffs = appendScalarDiff(diffs, "tier0-path", strings.TrimSpace(spec.Tier0Path), remoteTier0)

	diffs, err := appendSetDiff(diffs, "route-advertisement-types",
		trimmedStringList(spec.RouteAdvertisementTypes), anyList(remote.Raw["route_advertisement_types"]))
	if err != nil {
		return ComparisonResult{}, err
	}

	diffs, err = appendTagDiff(diffs, spec.Tags, remote)
	if err != nil {
		return ComparisonResult{}, err
	}
	return comparisonResult(diffs), nil
}

func comparisonResult(diffs []FieldDiff) ComparisonResult {
	return ComparisonResult{Matches: len(diffs) == 0, Diffs: diffs}
}

func appendScalarDiff(diffs []FieldDiff, field string, desired string, remote string) []FieldDiff {
	if desired == remote {
		return diffs
	}
	return append(diffs, FieldDiff{Field: field, Desired: desired, Remote: remote})
}

func appendSetDiff(diffs []FieldDiff, field string, desired []any, remote []any) ([]FieldDiff, error) {
	desiredNormalized, err := normalizeList(desired)
	if err != nil {
		return nil, err
	}
	remoteNormalized, err := normalizeList(remote)
	if err != nil {
		return nil, err
	}

	equal, err := multisetEqual(desiredNormalized, remoteNormalized)
	if err != nil {
		return nil, err
	}
	if equal {
		return diffs, nil
	}
	return append(diffs, FieldDiff{Field: field, Desired: desiredNormalized, Remote: remoteNormalized}), nil
}

func appendTagDiff(diffs []FieldDiff, desired []Tag, remote RemoteObject) ([]FieldDiff, error) {
	return appendSetDiff(diffs, "tags", buildTagList(desired), projectRemoteTags(remote.Raw["tags"]))
}

// projectRemoteExpressions splits a remote expression list into projected
// membership clauses and the conjunction operator joining them.
func projectRemoteExpressions(value any) ([]any, string) {
	entries := anyList(value)
	clauses := make([]any, 0, len(entries))
	conjunction := ""

	for _, entry := range entries {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			clauses = append(clauses, entry)
			continue
		}

		resourceType, _ := LookupScalarAttribute(entryMap, "resource_type")
		switch resourceType {
		case "ConjunctionOperator":
			if conjunction == "" {
				conjunction, _ = LookupScalarAttribute(entryMap, "conjunction_operator")
			}
		case "PathExpression":
			clauses = append(clauses, map[string]any{
				"resource_type": "PathExpression",
				"paths":         anyList(entryMap["paths"]),
			})
		default:
			projected := map[string]any{"resource_type": "Condition"}
			for _, key := range []string{"member_type", "key", "operator", "value"} {
				if scalar, ok := LookupScalarAttribute(entryMap, key); ok {
					projected[key] = scalar
				} else {
					projected[key] = ""
				}
			}
			clauses = append(clauses, projected)
		}
	}
	return clauses, conjunction
}

func projectRemoteTags(value any) []any {
	entries := anyList(value)
	projected := make([]any, 0, len(entries))
	for _, entry := range entries {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			projected = append(projected, entry)
			continue
		}
		tag := map[string]any{}
		if scalar, ok := LookupScalarAttribute(entryMap, "tag"); ok {
			tag["tag"] = scalar
		}
		if scalar, ok := LookupScalarAttribute(entryMap, "scope"); ok && scalar != "" {
			tag["scope"] = scalar
		}
		projected = append(projected, tag)
	}
	return projected
}

func anyList(value any) []any {
	switch typed := value.(type) {
	case nil:
		return nil
	case []any:
		return typed
	case []string:
		entries := make([]any, 0, len(typed))
		for _, item := range typed {
			entries = append(entries, item)
		}
		return entries
	}
	return nil
}

func trimmedStringList(values []string) []any {
	entries := make([]any, 0, len(values))
	for _, value := range values {
		entries = append(entries, strings.TrimSpace(value))
	}
	return entries
}

func normalizeList(values []any) ([]any, error) {
	normalized := make([]any, 0, len(values))
	for _, value := range values {
		item, err := Normalize(value)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, item)
	}
	return normalized, nil
}

func multisetEqual(a []any, b []any) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}

	counts := make(map[string]int, len(a))
	for _, item := range a {
		key, err := canonicalKey(item)
		if err != nil {
			return false, err
		}
		counts[key]++
	}
	for _, item := range b {
		key, err := canonicalKey(item)
		if err != nil {
			return false, err
		}
		counts[key]--
		if counts[key] < 0 {
			return false, nil
		}
	}
	return true, nil
}

func canonicalKey(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", faults.NewTypedError(faults.ValidationError, "value is not comparable", err)
	}
	return string(encoded), nil
}
