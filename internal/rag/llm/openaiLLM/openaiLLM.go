package openaiLLM

import (
	"context"
	"errors"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/customHttpClient"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

type llmClient struct {
	client    *openai.Client
	modelName string
}

var logger *logger_i.Logger
var openaiClient *llmClient
var once sync.Once

func GetOpenAIClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_openai")
		newOpenAIClient(ctx, modelName, apikey)
	})

	if openaiClient == nil {
		return nil
	}
	return &llmClient{client: openaiClient.client, modelName: openaiClient.modelName}
}

func newOpenAIClient(ctx context.Context, modelName string, apikey string) {
	clientCfg := openai.DefaultConfig(apikey)
	clientCfg.HTTPClient = customHttpClient.PooledClient

	openaiClient = &llmClient{
		client:    openai.NewClientWithConfig(clientCfg),
		modelName: modelName,
	}
	logger.Info("OpenAI chat client created", "model", modelName)
	go closeClient(ctx, openaiClient)
}

func (c *llmClient) Generate(ctx context.Context, prompt string, systemInstruction string, mode llm.Mode) (string, error) {
	temperature := config.SummaryModeTemperature
	if mode == llm.ModeQuote {
		temperature = config.QuoteModeTemperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
		MaxTokens:   config.AnswerMaxTokens,
	})
	if err != nil {
		logger.Error("Error generating answer from OpenAI", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing OpenAI chat client")
	llm.client = nil
	llm.modelName = ""
}
