package anthropic_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/blueprint/pkg/adapters/anthropic"
	"github.com/aretw0/blueprint/pkg/expert"
	"github.com/aretw0/blueprint/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func TestExecute_ExtractsFencedJSON(t *testing.T) {
	model := &fakeModel{reply: "Here you go:\n```json\n{\"summary\": \"ok\", \"confidence\": 0.9}\n```"}
	c := anthropic.NewFromModel(model, "anthropic:test", 0)

	raw, err := c.Execute(context.Background(), "you are an architect", "design it", ports.Shape{Name: "expert_output"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":"ok","confidence":0.9}`, string(raw))

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)
	assert.Equal(t, "anthropic:test", c.Name())
}

func TestExecute_NoObject(t *testing.T) {
	c := anthropic.NewFromModel(&fakeModel{reply: "I cannot help with that."}, "anthropic:test", 0)

	_, err := c.Execute(context.Background(), "s", "p", ports.Shape{Name: "critique"})
	assert.ErrorIs(t, err, expert.ErrNoJSONObject)
}

func TestExecute_TransportError(t *testing.T) {
	boom := errors.New("401 unauthorized")
	c := anthropic.NewFromModel(&fakeModel{err: boom}, "anthropic:test", 0)

	_, err := c.Execute(context.Background(), "s", "p", ports.Shape{Name: "blueprint"})
	assert.ErrorIs(t, err, boom)
}
