package cipher

import (
	"fmt"

	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Registry selects a cipher engine by algorithm identifier. Selection is
// first-match over the registered engines' Supports; unknown identifiers
// fall back to the designated default engine. The registry is immutable
// after construction, so lookups need no locking.
type Registry struct {
	engines    []driven.CipherEngine
	defaultEng driven.CipherEngine
}

// NewRegistry builds a registry over the given engines with the engine
// identified by defaultAlgorithm as fallback. Returns ErrNoDefaultEngine
// when no registered engine supports defaultAlgorithm, so a misconfigured
// default fails at startup rather than at first use.
func NewRegistry(engines []driven.CipherEngine, defaultAlgorithm string) (*Registry, error) {
	if len(engines) == 0 {
		return nil, fmt.Errorf("%w: no engines registered", driven.ErrNoDefaultEngine)
	}

	var def driven.CipherEngine
	for _, eng := range engines {
		if eng.Supports(defaultAlgorithm) {
			def = eng
			break
		}
	}
	if def == nil {
		return nil, fmt.Errorf("%w: no engine supports default algorithm %q",
			driven.ErrNoDefaultEngine, defaultAlgorithm)
	}

	return &Registry{engines: engines, defaultEng: def}, nil
}

// Resolve returns the first engine supporting algorithmID, or the default
// engine when none matches.
func (r *Registry) Resolve(algorithmID string) driven.CipherEngine {
	for _, eng := range r.engines {
		if eng.Supports(algorithmID) {
			return eng
		}
	}
	return r.defaultEng
}

// Default returns the engine used for new encryptions.
func (r *Registry) Default() driven.CipherEngine {
	return r.defaultEng
}

// Algorithms lists the registered algorithm identifiers, for diagnostics
// and API discovery.
func (r *Registry) Algorithms() []string {
	ids := make([]string, 0, len(r.engines))
	for _, eng := range r.engines {
		ids = append(ids, eng.AlgorithmID())
	}
	return ids
}
