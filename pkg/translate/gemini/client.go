package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"lyricbridge/pkg/translate"
)

var _ translate.Translator = (*Client)(nil)

// Client Gemini翻译后端
type Client struct {
	model *genai.GenerativeModel
}

func NewClient(ctx context.Context, apiKey, modelName string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		log.Error().Err(err).Msg("new gemini client error")
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}
	return &Client{model: client.GenerativeModel(modelName)}, nil
}

func (c *Client) Name() string {
	return "gemini"
}

func (c *Client) Translate(ctx context.Context, lines []string, targetLang string) ([]string, error) {
	prompt, err := translate.BuildPrompt(lines, targetLang)
	if err != nil {
		return nil, err
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("could not get response from gemini")
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return translate.ParseJSONLines(fmt.Sprint(resp.Candidates[0].Content.Parts[0]))
}
