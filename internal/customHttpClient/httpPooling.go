package customHttpClient

import (
	"net/http"

	"github.com/hanrgy/docs-bot/internal/config"
)

var customTransport = &http.Transport{
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// PooledClient is shared by the embedding and llm adapters so repeated
// provider calls reuse connections instead of paying the handshake each time.
var PooledClient = &http.Client{Transport: customTransport}
