package common

import (
	"context"
	"slices"
	"strings"
	"time"

	inventorydomain "github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

// Completions run while the user is typing, so remote lookups are capped.
const completionTimeout = 2 * time.Second

var (
	outputFlagValues = []string{
		OutputAuto,
		OutputText,
		OutputJSON,
		OutputYAML,
	}
	inputFormatFlagValues = []string{
		OutputJSON,
		OutputYAML,
	}
)

func RegisterOutputFlagCompletion(command *cobra.Command) {
	RegisterStaticFlagCompletion(command, "output", outputFlagValues)
}

func RegisterInputFormatFlagCompletion(command *cobra.Command) {
	RegisterStaticFlagCompletion(command, "format", inputFormatFlagValues)
}

func RegisterStaticFlagCompletion(command *cobra.Command, flagName string, values []string) {
	_ = command.RegisterFlagCompletionFunc(flagName, staticCompletion(values))
}

func staticCompletion(values []string) cobra.CompletionFunc {
	return func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return FilterCompletions(values, toComplete)
	}
}

func RegisterContextFlagCompletion(command *cobra.Command, deps CommandDependencies) {
	completer := func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return FilterCompletions(contextNames(deps), toComplete)
	}
	_ = command.RegisterFlagCompletionFunc("context", completer)
}

func contextNames(deps CommandDependencies) []string {
	service, err := RequireContextService(deps)
	if err != nil {
		return nil
	}

	ctx, cancel := completionContext(context.Background())
	defer cancel()

	items, err := service.List(ctx)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}

// ObjectNameArgCompletionFunc completes the first positional argument with
// display names of one kind. The inventory answers first; when it has no
// matching documents the remote listing is consulted as a fallback.
func ObjectNameArgCompletionFunc(deps CommandDependencies, kind resource.Kind) cobra.CompletionFunc {
	return func(command *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		ctx, cancel := completionContext(command.Context())
		defer cancel()

		names := inventoryObjectNames(ctx, deps, kind)
		if len(names) == 0 {
			names = remoteObjectNames(ctx, deps, kind)
		}
		return FilterCompletions(names, toComplete)
	}
}

func inventoryObjectNames(ctx context.Context, deps CommandDependencies, kind resource.Kind) []string {
	store, err := RequireInventory(deps)
	if err != nil {
		return nil
	}

	documents, err := store.List(ctx, inventorydomain.ListPolicy{Kind: kind})
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(documents))
	for _, document := range documents {
		if document.Spec == nil {
			continue
		}
		names = append(names, document.Spec.DisplayName())
	}
	return names
}

func remoteObjectNames(ctx context.Context, deps CommandDependencies, kind resource.Kind) []string {
	orchestratorService, err := RequireOrchestrator(deps)
	if err != nil {
		return nil
	}

	items, err := orchestratorService.ListRemote(ctx, kind, "")
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.DisplayName) == "" {
			continue
		}
		names = append(names, item.DisplayName)
	}
	return names
}

// FilterCompletions filters values by prefix, then sorts and deduplicates the
// survivors.
func FilterCompletions(values []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := strings.TrimSpace(toComplete)

	matches := make([]string, 0, len(values))
	for _, candidate := range values {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" || !strings.HasPrefix(candidate, prefix) {
			continue
		}
		matches = append(matches, candidate)
	}

	slices.Sort(matches)
	return slices.Compact(matches), cobra.ShellCompDirectiveNoFileComp
}

func completionContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, completionTimeout)
}
