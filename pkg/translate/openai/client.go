package openai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"lyricbridge/pkg/translate"
)

var _ translate.Translator = (*Client)(nil)

// Client 走OpenAI兼容接口的翻译后端，供用户自带模型服务时使用
type Client struct {
	model  string
	client *openai.Client
}

func NewClient(apiKey, modelName, baseURL string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &Client{
		model:  modelName,
		client: openai.NewClientWithConfig(cfg),
	}
}

func (c *Client) Name() string {
	return "openai"
}

func (c *Client) Translate(ctx context.Context, lines []string, targetLang string) ([]string, error) {
	prompt, err := translate.BuildPrompt(lines, targetLang)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("could not get response from openai")
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return translate.ParseJSONLines(resp.Choices[0].Message.Content)
}
