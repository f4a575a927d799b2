package azureopenai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/entity-tree-rag/internal/infrastructure/resilience"
)

type Options struct {
	APIKey      string
	Endpoint    string
	Deployment  string
	APIVersion  string
	Temperature *float64
	// Azure selects the Azure deployment URL scheme and api-key header.
	// When false the endpoint is treated as an OpenAI-compatible base URL.
	Azure   bool
	Timeout time.Duration

	ResilienceExecutor *resilience.Executor
}

// Generator implements ports.TextGenerator over the chat completions API.
type Generator struct {
	client      *openai.Client
	deployment  string
	temperature *float64
	executor    *resilience.Executor
}

func NewGenerator(options Options) (*Generator, error) {
	deployment := strings.TrimSpace(options.Deployment)
	if deployment == "" {
		return nil, fmt.Errorf("azureopenai: deployment is required")
	}
	endpoint := strings.TrimRight(strings.TrimSpace(options.Endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("azureopenai: endpoint is required")
	}

	var cfg openai.ClientConfig
	if options.Azure {
		cfg = openai.DefaultAzureConfig(options.APIKey, endpoint)
		if strings.TrimSpace(options.APIVersion) != "" {
			cfg.APIVersion = options.APIVersion
		}
		cfg.AzureModelMapperFunc = func(string) string { return deployment }
	} else {
		cfg = openai.DefaultConfig(options.APIKey)
		cfg.BaseURL = endpoint
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Generator{
		client:      openai.NewClientWithConfig(cfg),
		deployment:  deployment,
		temperature: options.Temperature,
		executor:    options.ResilienceExecutor,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := openai.ChatCompletionRequest{
		Model: g.deployment,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if g.temperature != nil {
		request.Temperature = float32(*g.temperature)
	}

	const operation = "azureopenai.chat_completion"
	response, err := resilience.ExecuteValue(ctx, g.executor, operation, func(callCtx context.Context) (openai.ChatCompletionResponse, error) {
		return g.client.CreateChatCompletion(callCtx, request)
	}, classifyError)
	if err != nil {
		return "", resilience.MarkTemporary(operation, err, classifyError)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", operation)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

func statusCode(err error) (int, bool) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode, true
	}
	return 0, false
}

var classifyError = resilience.NewClassifier(func(err error) (resilience.ErrorClassification, bool) {
	if code, ok := statusCode(err); ok {
		return resilience.ClassifyStatus(code), true
	}
	return resilience.ErrorClassification{}, false
})
