package detector

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/inspectra/inspectra/pkg/logger"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// DefaultPrompt asks the model for a per-item FOD inventory. The backend's
// raw-text parser understands the answer shape this elicits.
const DefaultPrompt = "Identify all instances of Foreign Object Debris (FOD) in this image. " +
	"For each item, describe what it is and specify its approximate location."

// VLMConfig selects and configures the vision model backing the detector.
type VLMConfig struct {
	Provider string // openai, anthropic, ollama, gemini
	Model    string
	APIKey   string
	BaseURL  string
	Prompt   string
}

// VLM analyzes inspection images with a vision language model.
type VLM struct {
	cfg VLMConfig
}

func NewVLM(cfg VLMConfig) *VLM {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &VLM{cfg: cfg}
}

// Analyze sends the image to the configured provider and returns the model's
// raw textual answer.
func (v *VLM) Analyze(ctx context.Context, image []byte, mimeType string) (string, error) {
	logger.Infof("[VLM] Using provider: %s, model: %s", v.cfg.Provider, v.cfg.Model)

	switch v.cfg.Provider {
	case "anthropic":
		return v.callAnthropic(ctx, image, mimeType)
	case "ollama":
		return v.callOllama(ctx, image)
	case "gemini":
		return v.callGemini(ctx, image, mimeType)
	default:
		// openai and OpenAI-compatible services
		return v.callOpenAI(ctx, image, mimeType)
	}
}

// callOpenAI handles OpenAI and OpenAI-compatible vision APIs
func (v *VLM) callOpenAI(ctx context.Context, image []byte, mimeType string) (string, error) {
	clientConfig := openai.DefaultConfig(v.cfg.APIKey)
	if v.cfg.BaseURL != "" {
		clientConfig.BaseURL = v.cfg.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	model := v.cfg.Model
	if model == "" {
		model = openai.GPT4o
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: v.cfg.Prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	logger.Infof("[VLM] OpenAI response length: %d chars", len(content))
	return content, nil
}

// callAnthropic handles Anthropic Claude vision using the native SDK
func (v *VLM) callAnthropic(ctx context.Context, image []byte, mimeType string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(v.cfg.APIKey),
	)

	model := v.cfg.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	encoded := base64.StdEncoding.EncodeToString(image)
	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mimeType, encoded),
				anthropic.NewTextBlock(v.cfg.Prompt),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}

	logger.Infof("[VLM] Anthropic response length: %d chars", len(content))
	return content, nil
}

// callOllama handles local Ollama vision models using the native SDK
func (v *VLM) callOllama(ctx context.Context, image []byte) (string, error) {
	baseURL := v.cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := v.cfg.Model
	if model == "" {
		model = "qwen2.5vl:7b"
	}

	stream := false
	var content strings.Builder
	err = client.Generate(ctx, &api.GenerateRequest{
		Model:  model,
		Prompt: v.cfg.Prompt,
		Images: []api.ImageData{image},
		Stream: &stream,
	}, func(resp api.GenerateResponse) error {
		content.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	result := content.String()
	logger.Infof("[VLM] Ollama response length: %d chars", len(result))
	return result, nil
}

// callGemini handles Google Gemini vision using the native SDK
func (v *VLM) callGemini(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: v.cfg.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := v.cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromText(v.cfg.Prompt),
		genai.NewPartFromBytes(image, mimeType),
	}, genai.RoleUser)

	resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{content}, nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	text := resp.Text()
	logger.Infof("[VLM] Gemini response length: %d chars", len(text))
	return text, nil
}
