package supervisor

import (
	"errors"
	"fmt"

	"runtimed/pkg/types"
)

// defaultResolver builds spawn commands for the two server kinds from the
// configured binaries.
func defaultResolver(runtimeBin, bridgeBin string) CommandResolver {
	return func(cfg types.ServerConfig) (string, []string, error) {
		switch cfg.Kind {
		case types.KindInferenceRuntime:
			if runtimeBin == "" {
				return "", nil, errors.New("inference runtime binary not configured")
			}
			args := []string{
				"-m", cfg.ModelPath,
				"--host", "127.0.0.1",
				"--port", fmt.Sprint(cfg.Port),
			}
			if cfg.ContextSize > 0 {
				args = append(args, "-c", fmt.Sprint(cfg.ContextSize))
			}
			return runtimeBin, args, nil
		case types.KindBridgeServer:
			if bridgeBin == "" {
				return "", nil, errors.New("bridge server binary not configured")
			}
			args := []string{
				"--port", fmt.Sprint(cfg.Port),
			}
			if cfg.MaxConcurrent > 0 {
				args = append(args, "--max-concurrent", fmt.Sprint(cfg.MaxConcurrent))
			}
			if cfg.TimeoutSec > 0 {
				args = append(args, "--timeout", fmt.Sprint(cfg.TimeoutSec))
			}
			return bridgeBin, args, nil
		default:
			return "", nil, fmt.Errorf("unknown server kind: %q", cfg.Kind)
		}
	}
}

// validateConfig checks a merged config before it is persisted.
func validateConfig(cfg types.ServerConfig) error {
	if cfg.ID == "" {
		return validationError{field: "id", reason: "must not be empty"}
	}
	switch cfg.Kind {
	case types.KindInferenceRuntime:
		if cfg.ModelPath == "" {
			return validationError{field: "model_path", reason: "required for inference-runtime servers"}
		}
		if cfg.ContextSize < 0 {
			return validationError{field: "context_size", reason: "must not be negative"}
		}
	case types.KindBridgeServer:
		if cfg.MaxConcurrent < 0 {
			return validationError{field: "max_concurrent", reason: "must not be negative"}
		}
		if cfg.TimeoutSec < 0 {
			return validationError{field: "timeout_sec", reason: "must not be negative"}
		}
	default:
		return validationError{field: "kind", reason: fmt.Sprintf("must be %q or %q", types.KindInferenceRuntime, types.KindBridgeServer)}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return validationError{field: "port", reason: "must be in 1-65535"}
	}
	return nil
}
