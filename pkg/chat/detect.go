package chat

import (
	"fmt"
	"os/exec"

	"github.com/cuemby/forge/pkg/faults"
)

// DetectProvider resolves the "auto" provider setting: a configured
// subprocess binary wins if it resolves on PATH, otherwise an API key
// selects the HTTP provider, otherwise detection fails outright rather
// than silently falling back to the mock.
func DetectProvider(subprocessBinary, apiKey, model string) (Provider, error) {
	if subprocessBinary != "" {
		if resolved, err := exec.LookPath(subprocessBinary); err == nil {
			return NewSubprocessProvider(resolved), nil
		}
	}
	if apiKey != "" {
		return NewHTTPProvider(apiKey, model), nil
	}
	return nil, &faults.ProviderError{Message: fmt.Sprintf("no chat provider available: %q not on PATH and no API key set", subprocessBinary)}
}

// SelectProvider resolves an explicit provider name ("http", "subprocess",
// "mock", or "auto").
func SelectProvider(name, subprocessBinary, apiKey, model string) (Provider, error) {
	switch name {
	case "", "auto":
		return DetectProvider(subprocessBinary, apiKey, model)
	case "http":
		if apiKey == "" {
			return nil, &faults.ProviderError{Message: "http provider selected but no API key set"}
		}
		return NewHTTPProvider(apiKey, model), nil
	case "subprocess":
		if subprocessBinary == "" {
			return nil, &faults.ProviderError{Message: "subprocess provider selected but no binary configured"}
		}
		return NewSubprocessProvider(subprocessBinary), nil
	case "mock":
		return &MockProvider{}, nil
	default:
		return nil, &faults.ProviderError{Message: fmt.Sprintf("unknown chat provider %q", name)}
	}
}
