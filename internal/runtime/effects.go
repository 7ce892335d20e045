package runtime

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/aretw0/storyboard/pkg/domain"
)

// applyEffects adds each delta to its meter, clamped to the meter's bounds.
// Keys the graph does not configure are ignored. It returns the deltas that
// were applied.
func (e *Engine) applyEffects(state *domain.State, effects map[string]float64) map[string]float64 {
	if len(effects) == 0 {
		return nil
	}
	applied := make(map[string]float64, len(effects))
	for key, delta := range effects {
		cfg, ok := e.graph.Meters[key]
		if !ok {
			e.logger.Debug("ignoring effect on unknown meter", "meter", key)
			continue
		}
		current, ok := state.Meters[key]
		if !ok {
			current = cfg.Clamp(cfg.Start)
		}
		state.Meters[key] = cfg.Clamp(current + delta)
		applied[key] = delta
	}
	return applied
}

var fallbackIDPattern = regexp.MustCompile(`^a(\d+)s(\d+)$`)

// successorGuess maps a generated id a{X}s{Y} to a{X}s{Y+1}.
func successorGuess(id string) (string, bool) {
	m := fallbackIDPattern.FindStringSubmatch(id)
	if m == nil {
		return "", false
	}
	step, err := strconv.Atoi(m[2])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("a%ss%d", m[1], step+1), true
}

func copyMeters(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
