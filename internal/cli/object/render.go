package object

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/resource"
)

func renderDocumentResultText(w io.Writer, result orchestrator.DocumentResult) error {
	_, err := fmt.Fprintln(w, formatDocumentResultLine(result))
	return err
}

func formatDocumentResultLine(result orchestrator.DocumentResult) string {
	line := fmt.Sprintf("%s/%s: %s", result.Kind, result.Name, result.Outcome.Action)
	if message := strings.TrimSpace(result.Outcome.Message); message != "" {
		line += fmt.Sprintf(" (%s)", message)
	}
	return line
}

func renderRemoteObjectText(w io.Writer, item resource.RemoteObject) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", item.DisplayName, item.ID); err != nil {
		return err
	}
	if item.Path != "" {
		if _, err := fmt.Fprintf(w, "path: %s\n", item.Path); err != nil {
			return err
		}
	}
	if item.Description != "" {
		if _, err := fmt.Fprintf(w, "description: %s\n", item.Description); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "revision: %d\n", item.Revision)
	return err
}

func renderRemoteListText(w io.Writer, items []resource.RemoteObject) error {
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", item.DisplayName, item.ID); err != nil {
			return err
		}
	}
	return nil
}

func renderDiffTextLine(entry resource.DiffEntry) (string, error) {
	local, err := marshalDiffTextValue(entry.Desired)
	if err != nil {
		return "", err
	}
	remote, err := marshalDiffTextValue(entry.Remote)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"%s [Local=%s] => [Remote=%s]",
		dotPathFromPointer(entry.Path),
		local,
		remote,
	), nil
}

func marshalDiffTextValue(value any) (string, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func dotPathFromPointer(pointerPath string) string {
	trimmed := strings.TrimPrefix(strings.TrimSpace(pointerPath), "/")
	if trimmed == "" {
		return "."
	}

	segments := strings.Split(trimmed, "/")
	for idx, segment := range segments {
		segments[idx] = unescapePointerToken(segment)
	}

	return "." + strings.Join(segments, ".")
}

func unescapePointerToken(value string) string {
	unescaped := strings.ReplaceAll(value, "~1", "/")
	return strings.ReplaceAll(unescaped, "~0", "~")
}
