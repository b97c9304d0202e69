// @title           Docs-Bot API
// @version         1.0
// @description     Document question answering with hybrid retrieval, citations and confidence scoring.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hanrgy/docs-bot/internal/config"
	"github.com/hanrgy/docs-bot/internal/data/store"
	jobmodel "github.com/hanrgy/docs-bot/internal/domain/jobModel"
	"github.com/hanrgy/docs-bot/internal/handlers"
	"github.com/hanrgy/docs-bot/internal/job"
	"github.com/hanrgy/docs-bot/internal/mcpserver"
	"github.com/hanrgy/docs-bot/internal/rag"
	"github.com/hanrgy/docs-bot/internal/rag/embedding/openaiEmbedding"
	"github.com/hanrgy/docs-bot/internal/rag/llm"
	"github.com/hanrgy/docs-bot/internal/rag/llm/gemini"
	"github.com/hanrgy/docs-bot/internal/rag/llm/openaiLLM"
	"github.com/hanrgy/docs-bot/internal/server"
	"github.com/hanrgy/docs-bot/internal/worker"
	"github.com/hanrgy/docs-bot/pkg/logger_i"
)

var (
	listenAddr        string
	requestCount      int64
	stopWorkerChannel chan bool
	workerWaitGroup   sync.WaitGroup
)

func main() {

	logger_i.Init()
	var logger = logger_i.NewLogger("main")

	//config
	flag.StringVar(&listenAddr, "listen-addr", config.ServerListenAddr, "server listen address")
	flag.Parse()

	//init buffered job channel
	jobChannel := make(chan jobmodel.Job, config.BufferLimit)
	dispatcherChannel := make(chan bool, 1)
	stopWorkerChannel = make(chan bool, 1)

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	//init job service and job store
	serviceConfig := job.ServiceConfig{
		JobChannel:        jobChannel,
		RequestCount:      requestCount,
		DispatcherChannel: dispatcherChannel,
		JobStore:          store.GetRedisJobStore(serviceContext),
	}
	logger.Info("Starting job service")

	if serviceConfig.JobStore == nil {
		logger.Error("Redis store is offline, falling back to in-memory job store")
		serviceConfig.JobStore = store.InitInMemoryJobStore()
	}
	service := job.InitJobService(serviceConfig)

	embeddingService := openaiEmbedding.GetOpenAIEmbeddingClient(serviceContext, config.OpenAIEmbeddingModel, config.OpenAIAPIKey())
	llmProvider := selectLLMProvider(serviceContext)

	if embeddingService == nil || llmProvider == nil {
		logger.Error("One or more external services failed to initialize. Shutting down.")
		logger.Debug("Available services : ", "EmbeddingService", embeddingService != nil, "LLMProvider", llmProvider != nil)
		return
	}

	ragService := rag.NewService(embeddingService, llmProvider)

	handlers.InitJobHandler(service, ragService)

	//init worker pool
	worker.InitServices(service, ragService)
	worker.InitWorkerPool(stopWorkerChannel, &workerWaitGroup)

	if config.MCPEnabled {
		go func() {
			if err := mcpserver.NewServer(ragService).RunHTTP(serviceContext, config.MCPListenAddr); err != nil {
				logger.Error("MCP server stopped", "error", err)
			}
		}()
	}

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices:    closeExternalServices,
	}
	go server.ShutDownHandler(shutdownParams)
	go server.CreateServer(listenAddr)

	<-stopExecution
	logger.Info("Server stopped")
}

func selectLLMProvider(ctx context.Context) llm.Provider {
	if config.LLMProvider() == "gemini" {
		return gemini.GetGeminiClient(ctx, config.GeminiModelName, config.GeminiAPIKey())
	}
	return openaiLLM.GetOpenAIClient(ctx, config.OpenAIChatModel, config.OpenAIAPIKey())
}
