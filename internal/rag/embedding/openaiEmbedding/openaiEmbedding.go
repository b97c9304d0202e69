package openaiEmbedding

import (
	"context"
	"fmt"
	"sync"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/customHttpClient"
	"github.com/hanrgy/docs-bot/internal/rag/embedding"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	openAi *openai.Client
	model  openai.EmbeddingModel
}

func newOpenAIEmbedder(ctx context.Context, modelName string, apikey string) {
	clientCfg := openai.DefaultConfig(apikey)
	clientCfg.HTTPClient = customHttpClient.PooledClient

	embeddingClient = &client{
		openAi: openai.NewClientWithConfig(clientCfg),
		model:  openai.EmbeddingModel(modelName),
	}
	logger.Debug("OpenAI embedding model name: " + modelName)
	logger.Info("OpenAI embedding client created")
	go closeClient(ctx, embeddingClient)
}

func closeClient(ctx context.Context, embeddingClient *client) {
	<-ctx.Done()
	logger.Info("Closing OpenAI embedding client")
	embeddingClient.openAi = nil
	embeddingClient.model = ""
}

func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		newOpenAIEmbedder(ctx, modelName, apikey)
	})

	if embeddingClient == nil {
		return nil
	}
	return &client{openAi: embeddingClient.openAi, model: embeddingClient.model}
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	vectors, err := c.doCall(ctx, []string{query})
	if err != nil {
		logger.Error("Error getting query embedding from OpenAI", "error", err)
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("chunks", len(chunks))

	vectors, err := c.doCall(ctx, chunks)
	if err != nil {
		log.Error("Error getting batch embeddings from OpenAI", "error", err)
		return nil, err
	}
	return vectors, nil
}

func (c *client) doCall(ctx context.Context, input []string) ([][]float32, error) {
	resp, err := c.openAi.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          input,
		Model:          c.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		Dimensions:     config.EmbeddingDims,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(input))
	}

	//the api may reorder results, Index says where each one belongs
	vectors := make([][]float32, len(input))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
