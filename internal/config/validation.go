package config

import "fmt"

// Validate performs range and consistency checks on the configuration.
// Called by Load(); exported so tests and manual construction can reuse it.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d (must be 1-65535)", ErrInvalidPort, c.Port)
	}

	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (must be gemini, openai, or ollama)", ErrInvalidProvider, c.Provider)
	}

	if c.RAGSimilarityThreshold < 0 || c.RAGSimilarityThreshold > 1 {
		return fmt.Errorf("%w: %v (must be in [0,1])", ErrInvalidThreshold, c.RAGSimilarityThreshold)
	}

	if c.RAGMaxResults < 1 || c.RAGMaxResults > 100 {
		return fmt.Errorf("%w: %d (must be 1-100)", ErrInvalidMaxResults, c.RAGMaxResults)
	}

	if c.RAGChunkSize < 100 || c.RAGChunkSize > 100000 {
		return fmt.Errorf("%w: chunk size %d (must be 100-100000)", ErrInvalidChunking, c.RAGChunkSize)
	}
	if c.RAGChunkOverlap < 0 || c.RAGChunkOverlap >= c.RAGChunkSize {
		return fmt.Errorf("%w: overlap %d (must be 0 <= overlap < chunk size %d)",
			ErrInvalidChunking, c.RAGChunkOverlap, c.RAGChunkSize)
	}

	if c.MaxHistoryEntries < 1 || c.MaxHistoryEntries > 10000 {
		return fmt.Errorf("%w: max history entries %d (must be 1-10000)", ErrInvalidHistory, c.MaxHistoryEntries)
	}
	if c.MaxSessions < 1 || c.MaxSessions > 1000000 {
		return fmt.Errorf("%w: max sessions %d (must be 1-1000000)", ErrInvalidHistory, c.MaxSessions)
	}

	return nil
}

