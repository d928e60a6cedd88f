package assist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutAPIKeyIsDisabled(t *testing.T) {
	svc, err := New(context.Background(), "", "", nil)
	require.NoError(t, err)

	assert.False(t, svc.Enabled())
	assert.Equal(t, DefaultModel, svc.model)

	_, err = svc.GenerateBoilerplate(context.Background(), "a web server", "javascript")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = svc.ExplainCode(context.Background(), "x = 1", "python")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = svc.CompleteCode(context.Background(), "def f(", "python")
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = svc.DebugCode(context.Background(), "x", "boom", "python")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestPromptBuilders(t *testing.T) {
	p := boilerplatePrompt("a REST API", "python")
	assert.Contains(t, p, "python")
	assert.Contains(t, p, "a REST API")
	assert.Contains(t, p, "only raw code")

	p = explainPrompt("print(1)", "python")
	assert.Contains(t, p, "Explain this python code")
	assert.Contains(t, p, "print(1)")

	p = completePrompt("def f(", "python")
	assert.Contains(t, p, "code that comes next")
	assert.Contains(t, p, "def f(")

	p = debugPrompt("x", "NameError", "python")
	assert.Contains(t, p, "NameError")
	assert.Contains(t, p, "corrected code")
}

func TestPromptBuildersDefaultLanguage(t *testing.T) {
	assert.Contains(t, boilerplatePrompt("anything", ""), "javascript")
}
