package common

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	stdinFileIndicator  = "-"
	MissingInputMessage = "input is required: provide --file <path|-> or stdin"
	maxInputBytes       = 4 << 20
)

// ReadInput returns the spec bytes named by --file, or stdin when the flag
// is "-" or unset. A missing source is an error.
func ReadInput(command *cobra.Command, flags InputFlags) ([]byte, error) {
	return readInput(command, flags, true)
}

// ReadOptionalInput behaves like ReadInput but reports a missing source as
// (nil, nil) so callers can fall back to another spec source.
func ReadOptionalInput(command *cobra.Command, flags InputFlags) ([]byte, error) {
	return readInput(command, flags, false)
}

func readInput(command *cobra.Command, flags InputFlags, required bool) ([]byte, error) {
	if path := flags.Payload; path != "" && path != stdinFileIndicator {
		return readSpecFile(path)
	}
	return readStdin(command, required)
}

func readSpecFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := readCapped(file)
	if err != nil {
		return nil, err
	}
	if isBlank(data) {
		return nil, ValidationError("input is empty", nil)
	}
	return data, nil
}

func readStdin(command *cobra.Command, required bool) ([]byte, error) {
	source := command.InOrStdin()
	if terminalAttached(source) {
		return missingInput(required)
	}

	data, err := readCapped(source)
	if err != nil {
		return nil, err
	}
	if isBlank(data) {
		return missingInput(required)
	}
	return data, nil
}

func missingInput(required bool) ([]byte, error) {
	if required {
		return nil, ValidationError(MissingInputMessage, nil)
	}
	return nil, nil
}

// terminalAttached reports whether the reader is an interactive terminal,
// in which case waiting for piped bytes would hang the command.
func terminalAttached(reader io.Reader) bool {
	file, ok := reader.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}

func readCapped(reader io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(reader, maxInputBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxInputBytes {
		return nil, ValidationError("input exceeds maximum supported size", errors.New("input too large"))
	}
	return data, nil
}
