package common

import (
	"github.com/fiesolecouk/declansx/faults"
)

func ValidationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
