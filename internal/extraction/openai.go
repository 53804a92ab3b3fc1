package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAI implements the Extractor interface using OpenAI-compatible chat
// completion APIs, including Azure OpenAI deployments via a custom base URL.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI Extractor instance. baseURL may be empty
// for the public API, or point at an Azure OpenAI resource.
func NewOpenAI(apiKey, baseURL, modelName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if modelName == "" {
		modelName = "gpt-4o"
	}

	options := []option.RequestOption{}

	if baseURL != "" {
		url := strings.TrimRight(baseURL, "/") + "/"
		options = append(options, option.WithBaseURL(url))

		if strings.Contains(url, "openai.azure.com") || strings.Contains(url, "cognitiveservices.azure.com") {
			options = append(options,
				option.WithQueryAdd("api-version", "preview"),
				option.WithHeader("Api-Key", apiKey),
			)
		} else {
			options = append(options, option.WithAPIKey(apiKey))
		}
	} else {
		options = append(options, option.WithAPIKey(apiKey))
	}

	return &OpenAI{
		client: openai.NewClient(options...),
		model:  modelName,
	}, nil
}

// ExtractPage analyzes one page image and extracts its line items
func (o *OpenAI) ExtractPage(ctx context.Context, pageNo string, pngData []byte) (*PageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	imageURL := openai.ChatCompletionContentPartImageImageURLParam{
		URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngData),
	}

	parts := []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(userPrompt(pageNo)),
		openai.ImageContentPart(imageURL),
	}

	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(extractionSystemPrompt),
			openai.UserMessage(parts),
		},
		MaxTokens:   openai.Int(4000),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}

	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no response from openai")
	}

	usage := TokenUsage{
		TotalTokens:  int(completion.Usage.TotalTokens),
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}

	page, err := parsePageJSON(completion.Choices[0].Message.Content, pageNo)
	if err != nil {
		return nil, fmt.Errorf("parsing page data: %w", err)
	}

	return &PageResult{Page: *page, Usage: usage}, nil
}

// Close closes the OpenAI client (no-op for HTTP client)
func (o *OpenAI) Close() error {
	return nil
}
