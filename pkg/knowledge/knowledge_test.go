package knowledge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/blueprint/pkg/domain"
	"github.com/aretw0/blueprint/pkg/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltin_DeclarationOrder(t *testing.T) {
	kb := knowledge.Builtin()
	var names []string
	for _, p := range kb.LookupPatterns() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"monolith", "modular_monolith", "microservices", "serverless", "event_driven", "cqrs"}, names)

	mm, ok := kb.Get("modular_monolith")
	require.True(t, ok)
	assert.Equal(t, "Modular Monolith", mm.Label())
}

func TestParse_RejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"no patterns":     "patterns: []",
		"bad yaml":        "patterns: [",
		"empty name":      "patterns:\n  - name: ''\n    scores: {time_to_market: 1, cost: 1, scale: 1, reliability: 1, security: 1}\n",
		"missing score":   "patterns:\n  - name: a\n    scores: {time_to_market: 1, cost: 1, scale: 1, reliability: 1}\n",
		"out of range":    "patterns:\n  - name: a\n    scores: {time_to_market: 101, cost: 1, scale: 1, reliability: 1, security: 1}\n",
		"unknown key":     "patterns:\n  - name: a\n    scores: {speed: 1, time_to_market: 1, cost: 1, scale: 1, reliability: 1, security: 1}\n",
		"duplicate names": "patterns:\n  - name: a\n    scores: {time_to_market: 1, cost: 1, scale: 1, reliability: 1, security: 1}\n  - name: a\n    scores: {time_to_market: 1, cost: 1, scale: 1, reliability: 1, security: 1}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := knowledge.Parse([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	doc := "patterns:\n  - name: a\n    display_name: A\n    complexity: 10\n    scores: {time_to_market: 10, cost: 20, scale: 30, reliability: 40, security: 50}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	kb, err := knowledge.Load(path)
	require.NoError(t, err)
	patterns := kb.LookupPatterns()
	require.Len(t, patterns, 1)
	assert.Equal(t, 30, patterns[0].Score(domain.CriterionScale))

	_, err = knowledge.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
