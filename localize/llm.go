package localize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

const llmTimeout = 30 * time.Second

// LLMClient abstracts a chat-completion model so it can be replaced in tests.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// LLMSettings is the provider configuration handed to NewOpenAILLM.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// OpenAILLM implements LLMClient with the official openai-go SDK. It also
// serves OpenAI-compatible providers through BaseURL.
type OpenAILLM struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAILLM(cfg *LLMSettings) (*OpenAILLM, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key missing; set LLM_API_KEY")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{Model: cfg.Model, Opts: opts}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.Opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// BuildTranslationPrompt asks for a single-line Persian headline.
func BuildTranslationPrompt(text string) Prompt {
	var sb strings.Builder
	sb.WriteString("You translate English social media headlines into natural, engaging Persian (Farsi).\n")
	sb.WriteString("- Reply with the translated headline only, on a single line.\n")
	sb.WriteString("- Keep numbers, names and emoji.\n")
	sb.WriteString("- No quotes, no explanations, no hashtags.\n")

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Headline: %s", text),
	}
}

// cleanCompletion keeps the first non-empty line and strips wrapping quotes.
func cleanCompletion(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.Trim(line, "\"'«»“”")
		return strings.TrimSpace(line)
	}
	return ""
}

// LLMTranslator uses the fixed table first and only asks the model when no
// phrase matched. Model failures fall back to the untranslated marker.
type LLMTranslator struct {
	Table  Table
	Client LLMClient
	Logger *logrus.Logger
}

func (t *LLMTranslator) Translate(ctx context.Context, text string) string {
	if t.Client == nil || t.Table.Matches(text) {
		return t.Table.Translate(text)
	}

	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	raw, err := t.Client.Complete(ctx, BuildTranslationPrompt(text))
	out := cleanCompletion(raw)
	if err != nil || out == "" {
		if t.Logger != nil {
			t.Logger.WithError(err).WithField("title", text).Warn("LLM translation unavailable; using untranslated marker")
		}
		return t.Table.Wrap(text)
	}
	return out
}
