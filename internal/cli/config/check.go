package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

func newCheckCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check configured component availability and connectivity",
		Example: strings.Join([]string{
			"  declansx config check",
			"  declansx --context prod config check --output json",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			contexts, err := common.RequireContextService(deps)
			if err != nil {
				return err
			}

			resolvedContext, err := contexts.ResolveContext(command.Context(), configdomain.ContextSelection{
				Name: requestedContextName(globalFlags),
			})
			if err != nil {
				return err
			}

			report := runConfigCheck(command, deps, resolvedContext)
			if err := common.WriteOutput(command, requestedOutput(globalFlags), report, renderConfigCheckText); err != nil {
				return err
			}

			if report.Summary.Fail > 0 {
				return common.ValidationError(
					fmt.Sprintf("config check failed for context %q: %d component(s) unavailable", report.Context, report.Summary.Fail),
					nil,
				)
			}
			return nil
		},
	}
}

type configCheckStatus string

const (
	configCheckOK   configCheckStatus = "ok"
	configCheckWarn configCheckStatus = "warn"
	configCheckFail configCheckStatus = "fail"
	configCheckSkip configCheckStatus = "skip"
)

type configCheckResult struct {
	Component string            `json:"component" yaml:"component"`
	Status    configCheckStatus `json:"status" yaml:"status"`
	Details   string            `json:"details,omitempty" yaml:"details,omitempty"`
	Error     string            `json:"error,omitempty" yaml:"error,omitempty"`
}

type configCheckSummary struct {
	OK   int `json:"ok" yaml:"ok"`
	Warn int `json:"warn" yaml:"warn"`
	Fail int `json:"fail" yaml:"fail"`
	Skip int `json:"skip" yaml:"skip"`
}

type configCheckReport struct {
	Context    string              `json:"context" yaml:"context"`
	Passed     bool                `json:"passed" yaml:"passed"`
	Summary    configCheckSummary  `json:"summary" yaml:"summary"`
	Components []configCheckResult `json:"components" yaml:"components"`
}

func runConfigCheck(command *cobra.Command, deps common.CommandDependencies, cfg configdomain.Context) configCheckReport {
	items := []configCheckResult{
		checkContext(command, deps, cfg),
		checkInventory(command, deps, cfg),
		checkManager(command, deps, cfg),
		checkSecretStore(command, deps, cfg),
	}

	summary := configCheckSummary{}
	for _, item := range items {
		switch item.Status {
		case configCheckOK:
			summary.OK++
		case configCheckWarn:
			summary.Warn++
		case configCheckFail:
			summary.Fail++
		case configCheckSkip:
			summary.Skip++
		}
	}

	return configCheckReport{
		Context:    cfg.Name,
		Passed:     summary.Fail == 0,
		Summary:    summary,
		Components: items,
	}
}

func checkContext(command *cobra.Command, deps common.CommandDependencies, cfg configdomain.Context) configCheckResult {
	result := configCheckResult{
		Component: "context",
	}

	contexts, err := common.RequireContextService(deps)
	if err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	if err := contexts.Validate(command.Context(), cfg); err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	result.Status = configCheckOK
	result.Details = "context resolved and validated"
	return result
}

func checkInventory(command *cobra.Command, deps common.CommandDependencies, cfg configdomain.Context) configCheckResult {
	result := configCheckResult{
		Component: "inventory",
	}

	inventoryService, err := common.RequireInventorySync(deps)
	if err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	if err := inventoryService.Check(command.Context()); err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	switch {
	case cfg.Inventory.Filesystem != nil:
		result.Status = configCheckOK
		result.Details = "filesystem inventory is accessible"
		return result
	case cfg.Inventory.Git != nil && cfg.Inventory.Git.Remote != nil:
		status, err := inventoryService.SyncStatus(command.Context())
		if err != nil {
			result.Status = configCheckFail
			result.Error = err.Error()
			return result
		}
		result.Status = configCheckOK
		result.Details = fmt.Sprintf("git inventory is accessible (state=%s ahead=%d behind=%d)", status.State, status.Ahead, status.Behind)
		return result
	case cfg.Inventory.Git != nil:
		result.Status = configCheckOK
		result.Details = "git inventory is accessible (remote not configured)"
		return result
	default:
		result.Status = configCheckFail
		result.Error = "inventory configuration is missing"
		return result
	}
}

func checkManager(command *cobra.Command, deps common.CommandDependencies, cfg configdomain.Context) configCheckResult {
	result := configCheckResult{
		Component: "manager",
	}

	session, err := common.RequireSession(deps)
	if err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	if err := session.CheckReachable(command.Context()); err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	info, err := session.Version(command.Context())
	if err != nil {
		result.Status = configCheckWarn
		result.Details = "manager is reachable (version probe failed)"
		result.Error = err.Error()
		return result
	}

	minVersion := strings.TrimSpace(cfg.Manager.MinVersion)
	if minVersion == "" {
		result.Status = configCheckOK
		result.Details = fmt.Sprintf("manager is reachable (version %s)", info.ProductVersion)
		return result
	}

	return checkManagerVersion(result, info.ProductVersion, minVersion)
}

// checkManagerVersion gates on manager.min-version. NSX reports four-segment
// builds like 4.1.2.3.0; only the first three segments carry semver meaning.
func checkManagerVersion(result configCheckResult, productVersion string, minVersion string) configCheckResult {
	constraint, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		result.Status = configCheckFail
		result.Error = fmt.Sprintf("invalid manager.min-version %q: %v", minVersion, err)
		return result
	}

	parsed, err := semver.NewVersion(coerceManagerVersion(productVersion))
	if err != nil {
		result.Status = configCheckWarn
		result.Details = fmt.Sprintf("manager is reachable (unparseable version %q)", productVersion)
		result.Error = err.Error()
		return result
	}

	if !constraint.Check(parsed) {
		result.Status = configCheckFail
		result.Error = fmt.Sprintf("manager version %s is below required minimum %s", productVersion, minVersion)
		return result
	}

	result.Status = configCheckOK
	result.Details = fmt.Sprintf("manager is reachable (version %s, minimum %s)", productVersion, minVersion)
	return result
}

func coerceManagerVersion(raw string) string {
	segments := strings.Split(strings.TrimSpace(raw), ".")
	if len(segments) > 3 {
		segments = segments[:3]
	}
	return strings.Join(segments, ".")
}

func checkSecretStore(command *cobra.Command, deps common.CommandDependencies, cfg configdomain.Context) configCheckResult {
	result := configCheckResult{
		Component: "secret-store",
	}

	if cfg.SecretStore == nil {
		result.Status = configCheckSkip
		result.Details = "not configured"
		return result
	}

	secretStore, err := common.RequireSecrets(deps)
	if err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	names, err := secretStore.List(command.Context())
	if err != nil {
		result.Status = configCheckFail
		result.Error = err.Error()
		return result
	}

	result.Status = configCheckOK
	result.Details = fmt.Sprintf("secret store is accessible (secrets=%d)", len(names))
	return result
}

func renderConfigCheckText(writer io.Writer, report configCheckReport) error {
	if _, err := fmt.Fprintf(writer, "Config check for context %q\n", report.Context); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(writer, strings.Repeat("-", 80)); err != nil {
		return err
	}

	for _, item := range report.Components {
		line := fmt.Sprintf("[%s] %-14s %s", strings.ToUpper(string(item.Status)), item.Component, item.Details)
		if strings.TrimSpace(item.Details) == "" {
			line = fmt.Sprintf("[%s] %-14s", strings.ToUpper(string(item.Status)), item.Component)
		}
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
		if strings.TrimSpace(item.Error) != "" {
			if _, err := fmt.Fprintf(writer, "       %-14s %s\n", "error:", item.Error); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintln(writer, strings.Repeat("-", 80)); err != nil {
		return err
	}

	state := "PASS"
	if !report.Passed {
		state = "FAIL"
	}

	_, err := fmt.Fprintf(
		writer,
		"Result: %s (ok=%d warn=%d fail=%d skip=%d)\n",
		state,
		report.Summary.OK,
		report.Summary.Warn,
		report.Summary.Fail,
		report.Summary.Skip,
	)
	return err
}
