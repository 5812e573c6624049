package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")

	ErrUsage              = errors.New("usage error")
	ErrProbe              = errors.New("probe error")
	ErrLeaderSynthesis    = errors.New("leader synthesis error")
	ErrNormalization      = errors.New("normalization error")
	ErrConcatenation      = errors.New("concatenation error")
	ErrOutputVerification = errors.New("output verification error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns a short label naming the failure class of err. Errors that
// carry no known marker report "unknown"; nil reports "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, entry := range kinds {
		if errors.Is(err, entry.marker) {
			return entry.label
		}
	}
	return "unknown"
}

var kinds = []struct {
	marker error
	label  string
}{
	{ErrUsage, "usage"},
	{ErrProbe, "probe"},
	{ErrLeaderSynthesis, "leader_synthesis"},
	{ErrNormalization, "normalization"},
	{ErrConcatenation, "concatenation"},
	{ErrOutputVerification, "output_verification"},
	{ErrConfiguration, "configuration"},
	{ErrValidation, "validation"},
	{ErrNotFound, "not_found"},
	{ErrExternalTool, "external_tool"},
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
