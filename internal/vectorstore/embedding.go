package vectorstore

import (
	"github.com/philippgille/chromem-go"

	"betterresume/internal/config"
)

// NewEmbeddingFunc builds the embedding function for the configured
// OpenAI-compatible embedding service.
func NewEmbeddingFunc(cfg *config.Config) chromem.EmbeddingFunc {
	return chromem.NewEmbeddingFuncOpenAICompat(
		cfg.Embeddings.BaseURL,
		cfg.Embeddings.APIKey,
		cfg.Embeddings.Model,
		nil,
	)
}

// TruncateForEmbedding limits document content before it is embedded. Long
// records blow past the embedding service's input window, and the tail of a
// record rarely changes its retrieval relevance.
func TruncateForEmbedding(content string, maxChars int) string {
	if maxChars <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	return string(runes[:maxChars])
}
