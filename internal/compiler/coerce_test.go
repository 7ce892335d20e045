package compiler

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/storyboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextCoercer_Text(t *testing.T) {
	tc := textCoercer{locales: DefaultLocales}

	tests := []struct {
		name string
		raw  any
		want string
	}{
		{"plain string", "Hello", "Hello"},
		{"blank string", "   ", ""},
		{"absent", nil, ""},
		{"primary locale wins", map[string]any{"pt": "Olá", "en": "Hello"}, "Hello"},
		{"secondary locale fallback", map[string]any{"pt": "Olá"}, "Olá"},
		{"empty primary falls through", map[string]any{"en": "", "pt": "Olá"}, "Olá"},
		{"other locales ignored", map[string]any{"fr": "Bonjour"}, ""},
		{"yaml map", map[any]any{"en": "Hi"}, "Hi"},
		{"number", 42, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tc.Text(tt.raw))
		})
	}
}

func TestTextCoercer_NodeTextPriority(t *testing.T) {
	tc := textCoercer{locales: DefaultLocales}

	assert.Equal(t, "from text", tc.NodeText(map[string]any{"say": "from say", "text": "from text"}))
	assert.Equal(t, "from say", tc.NodeText(map[string]any{"text": "", "say": "from say", "prompt": "p"}))
	assert.Equal(t, "from prompt", tc.NodeText(map[string]any{"prompt": "from prompt"}))
}

func TestTextCoercer_Choice(t *testing.T) {
	tc := textCoercer{locales: DefaultLocales}

	t.Run("Label and target synonyms", func(t *testing.T) {
		c, ok := tc.Choice(map[string]any{"title": "Leave", "next": "a1s4"}, 1)
		require.True(t, ok)
		assert.Equal(t, "Leave", c.Label)
		assert.Equal(t, "a1s4", c.To)
	})

	t.Run("Target priority", func(t *testing.T) {
		c, _ := tc.Choice(map[string]any{"id": "by-id", "goto": "by-goto"}, 1)
		assert.Equal(t, "by-goto", c.To)
	})

	t.Run("Default label uses position", func(t *testing.T) {
		c, ok := tc.Choice(map[string]any{"to": "x"}, 3)
		require.True(t, ok)
		assert.Equal(t, "Option 3", c.Label)
	})

	t.Run("Missing target is empty", func(t *testing.T) {
		c, ok := tc.Choice(map[string]any{"label": "Stay"}, 1)
		require.True(t, ok)
		assert.Empty(t, c.To)
	})

	t.Run("Bare string", func(t *testing.T) {
		c, ok := tc.Choice("Shrug", 2)
		require.True(t, ok)
		assert.Equal(t, domain.Choice{Label: "Shrug"}, c)
	})

	t.Run("Effects synonyms keep numeric entries", func(t *testing.T) {
		c, _ := tc.Choice(map[string]any{
			"label":  "Be kind",
			"impact": map[string]any{"trust": json.Number("5"), "rapport": "-2", "mood": "sunny"},
		}, 1)
		assert.Equal(t, map[string]float64{"trust": 5, "rapport": -2}, c.Effects)
	})

	t.Run("Not a choice", func(t *testing.T) {
		_, ok := tc.Choice(42, 1)
		assert.False(t, ok)
	})
}

func TestTextCoercer_Node(t *testing.T) {
	tc := textCoercer{locales: DefaultLocales}

	t.Run("Bare string is a line", func(t *testing.T) {
		n, explicit := tc.Node("Hello", "a1s1")
		assert.False(t, explicit)
		assert.Equal(t, domain.Node{ID: "a1s1", Type: domain.NodeTypeLine, Text: "Hello"}, n)
	})

	t.Run("Choices make a choice node", func(t *testing.T) {
		n, _ := tc.Node(map[string]any{
			"prompt":  "Pick",
			"options": []any{map[string]any{"label": "A", "to": "x"}},
		}, "f")
		assert.Equal(t, domain.NodeTypeChoice, n.Type)
		assert.Len(t, n.Choices, 1)
	})

	t.Run("Uncoercible choices fall through", func(t *testing.T) {
		n, _ := tc.Node(map[string]any{"text": "Q", "choices": []any{42, nil}, "to": "elsewhere"}, "f")
		assert.Equal(t, domain.NodeTypeGoto, n.Type)
		assert.Nil(t, n.Choices)
		assert.Equal(t, "elsewhere", n.To)
	})

	t.Run("Target without choices is a goto", func(t *testing.T) {
		n, _ := tc.Node(map[string]any{"goto": "a2s1"}, "f")
		assert.Equal(t, domain.NodeTypeGoto, n.Type)
		assert.Equal(t, "a2s1", n.To)
	})

	t.Run("Own id wins over fallback", func(t *testing.T) {
		n, explicit := tc.Node(map[string]any{"id": "intro", "text": "Hi"}, "a1s1")
		assert.True(t, explicit)
		assert.Equal(t, "intro", n.ID)
		assert.Equal(t, domain.NodeTypeLine, n.Type)
	})

	t.Run("Numeric id", func(t *testing.T) {
		n, explicit := tc.Node(map[string]any{"id": json.Number("7")}, "a1s1")
		assert.True(t, explicit)
		assert.Equal(t, "7", n.ID)
	})

	t.Run("Explicit end", func(t *testing.T) {
		n, _ := tc.Node(map[string]any{"type": "END", "text": "Fin", "to": "x"}, "f")
		assert.Equal(t, domain.NodeTypeEnd, n.Type)
		assert.Empty(t, n.To)

		n, _ = tc.Node(map[string]any{"end": true}, "g")
		assert.Equal(t, domain.NodeTypeEnd, n.Type)
	})
}
