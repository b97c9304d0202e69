package config

import (
	"log/slog"
	"os"
	"time"
)

const (
	IS_PROD               = false
	LOG_LEVEL_PROD        = slog.LevelInfo
	TRACE_ID_KEY          = "traceId"
	RATE_LIMIT_PER_SECOND = 2
	BURST_RATE_LIMIT      = 5

	//server listening port
	ServerListenAddr = ":3000"

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//job requests buffer limit
	BufferLimit = 100

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute

	//chunking
	ChunkSizeTokens    = 1000
	ChunkOverlapTokens = 200
	//a single word longer than this has no split point we are willing to honor
	HardTokenRuneCeiling = 2048

	//hybrid search
	SearchTopK     = 5
	RRFConstant    = 60
	BM25K1         = 1.5
	BM25B          = 0.75
	EmbeddingDims  = 1536 //text-embedding-3-small
	SubQueryExpand = 2    //each sub-index is asked for topK * this

	//context assembly + answer generation
	ContextTokenBudget = 3000
	AnswerMaxTokens    = 500
	MaxExcerptRunes    = 300

	//confidence display bands
	ConfidenceHighBand   = 0.8
	ConfidenceMediumBand = 0.6

	//answer cache
	AnswerCacheCapacity = 256

	//external call timeouts
	EmbeddingCallTimeout  = 30 * time.Second
	GenerationCallTimeout = 45 * time.Second
	IngestJobTimeout      = 5 * time.Minute

	//providers
	OpenAIEmbeddingModel = "text-embedding-3-small"
	OpenAIChatModel      = "gpt-4"
	GeminiModelName      = "gemini-2.5-flash-lite-preview-09-2025"

	QuoteModeTemperature   float64 = 0.0
	SummaryModeTemperature float64 = 0.1

	//upload handling
	MaxUploadBytes    = 10 << 20 //10mb, same cap the product always had
	MaxFilesPerUpload = 10

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	RedisPassword = ""

	//redis has 16 DB we can use
	RedisJobStore = 0

	RedisJobStoreTTL = 24 * time.Hour

	//auth
	NoAuthBypass = true //set false and provide AUTH_TOKEN for real deployments
	AuthToken    = ""

	//mcp
	MCPEnabled    = false
	MCPListenAddr = ":3001"
)

// LLMProvider selects the generation backend, "openai" or "gemini".
func LLMProvider() string {
	if p := os.Getenv("LLM_PROVIDER"); p != "" {
		return p
	}
	return "openai"
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

func GeminiAPIKey() string {
	return os.Getenv("GEMINI_API_KEY")
}
