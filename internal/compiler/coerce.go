package compiler

import (
	"strconv"
	"strings"

	"github.com/aretw0/storyboard/pkg/domain"
)

// Synonym sets, in priority order. The primary synonym comes first.
var (
	textKeys        = []string{"text", "say", "line", "prompt"}
	targetKeys      = []string{"to", "next", "goto"}
	choiceListKeys  = []string{"choices", "options", "actions"}
	choiceLabelKeys = []string{"label", "text", "title"}
	choiceToKeys    = []string{"to", "next", "goto", "id"}
	effectKeys      = []string{"effects", "vars", "delta", "impact"}
)

// DefaultLocales are the two locale fields consulted for localized text.
var DefaultLocales = []string{"en", "pt"}

// textCoercer resolves raw text fields into display strings.
type textCoercer struct {
	locales []string
}

// Text coerces one raw text value: a string, a localized object, or absent.
// It never fails; unusable input yields "".
func (tc textCoercer) Text(raw any) string {
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return ""
		}
		return v
	case nil:
		return ""
	}
	obj, ok := asMap(raw)
	if !ok {
		return ""
	}
	return first(obj, tc.locales, func(v any) string {
		s, _ := v.(string)
		if strings.TrimSpace(s) == "" {
			return ""
		}
		return s
	})
}

// NodeText picks the first non-empty text synonym of a raw node object.
func (tc textCoercer) NodeText(obj map[string]any) string {
	return first(obj, textKeys, tc.Text)
}

// Choice coerces one raw choice. position is 1-based and only used for the
// default label. An empty To means no target synonym resolved; the caller
// decides where such a choice leads. ok is false when raw cannot be a choice.
func (tc textCoercer) Choice(raw any, position int) (choice domain.Choice, ok bool) {
	defaultLabel := "Option " + strconv.Itoa(position)

	if s, isString := raw.(string); isString {
		label := tc.Text(s)
		if label == "" {
			label = defaultLabel
		}
		return domain.Choice{Label: label}, true
	}

	obj, isMap := asMap(raw)
	if !isMap {
		return domain.Choice{}, false
	}

	choice.Label = first(obj, choiceLabelKeys, tc.Text)
	if choice.Label == "" {
		choice.Label = defaultLabel
	}
	choice.To = first(obj, choiceToKeys, asID)
	choice.Effects = coerceEffects(obj)
	return choice, true
}

// Choices coerces a raw choice list, dropping entries that are neither
// strings nor objects. Positions count every raw entry.
func (tc textCoercer) Choices(raw any) []domain.Choice {
	list, ok := asSlice(raw)
	if !ok {
		return nil
	}
	var out []domain.Choice
	for i, item := range list {
		if c, ok := tc.Choice(item, i+1); ok {
			out = append(out, c)
		}
	}
	return out
}

// coerceEffects takes the first effects synonym that is an object and keeps
// its numeric entries.
func coerceEffects(obj map[string]any) map[string]float64 {
	for _, k := range effectKeys {
		raw, ok := obj[k]
		if !ok {
			continue
		}
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		effects := make(map[string]float64, len(m))
		for meter, delta := range m {
			if d, ok := asNumber(delta); ok {
				effects[meter] = d
			}
		}
		if len(effects) == 0 {
			return nil
		}
		return effects
	}
	return nil
}
