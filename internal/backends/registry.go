// Package backends maps captioning backend identifiers to external worker
// invocations and normalizes their results.
//
// Backends are a closed enumeration: each identifier carries a fixed worker
// script and a fixed argument-building rule. Adding a backend means adding
// one registry entry.
package backends

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fluxyoga/batchcaption/pkg/types"
)

// ErrUnsupportedBackend is returned before any process is spawned when a
// request names a backend outside the supported set.
var ErrUnsupportedBackend = errors.New("unsupported backend")

// workerSpec is the fixed invocation rule for one backend.
type workerSpec struct {
	// script is the worker filename inside the scripts directory.
	script string
	// buildArgs produces the worker's command-line arguments.
	buildArgs func(req types.CaptionRequest) []string
	// jsonOutput marks workers whose stdout is a JSON object with a
	// "caption" field rather than plain caption text.
	jsonOutput bool
}

var registry = map[types.Backend]workerSpec{
	types.BackendBLIP: {
		script: "generate_blip_caption.py",
		buildArgs: func(req types.CaptionRequest) []string {
			return []string{
				"--image_path", req.ImagePath,
				"--model_type", "base",
				"--max_tokens", strconv.Itoa(req.MaxTokens),
				"--style", string(req.Style),
			}
		},
	},
	types.BackendBLIP2: {
		script: "generate_blip_caption.py",
		buildArgs: func(req types.CaptionRequest) []string {
			return []string{
				"--image_path", req.ImagePath,
				"--model_type", "large",
				"--max_tokens", strconv.Itoa(req.MaxTokens),
				"--style", string(req.Style),
			}
		},
	},
	types.BackendGPT4V: {
		script: "generate_gpt4v_caption.py",
		buildArgs: func(req types.CaptionRequest) []string {
			return []string{
				"--image_path", req.ImagePath,
				"--style", string(req.Style),
				"--max_tokens", strconv.Itoa(req.MaxTokens),
			}
		},
	},
	types.BackendViTGPT2: {
		script: "generate_ofa_caption.py",
		buildArgs: func(req types.CaptionRequest) []string {
			return []string{
				"--image_path", req.ImagePath,
				"--max_length", strconv.Itoa(req.MaxTokens),
				"--style", string(req.Style),
			}
		},
	},
	types.BackendFlorence: {
		script:     "generate_florence2_caption.py",
		jsonOutput: true,
		buildArgs: func(req types.CaptionRequest) []string {
			return []string{
				"--image_path", req.ImagePath,
				"--model_id", "microsoft/Florence-2-base",
				"--prompt", "<MORE_DETAILED_CAPTION>",
			}
		},
	},
}

// Supported lists the backends in display order.
func Supported() []types.Backend {
	return types.AllBackends()
}

func lookup(b types.Backend) (workerSpec, error) {
	spec, ok := registry[b]
	if !ok {
		return workerSpec{}, fmt.Errorf("%w: %s", ErrUnsupportedBackend, b)
	}
	return spec, nil
}

// Args exposes the argument-building rule for a backend, mainly so callers
// and tests can inspect the invocation contract without spawning anything.
func Args(req types.CaptionRequest) ([]string, error) {
	spec, err := lookup(req.Backend)
	if err != nil {
		return nil, err
	}
	return append([]string{spec.script}, spec.buildArgs(req)...), nil
}
