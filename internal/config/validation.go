package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the whole configuration and fails fast with a sentinel
// error wrapped with context. Callers use errors.Is to branch on cause.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("%w: %q (supported: gemini, ollama, openai)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.Temperature < 0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: %v (must be within [0, 2])", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2_097_152 {
		return fmt.Errorf("%w: %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: embedder model is empty", ErrInvalidEmbedderModel)
	}

	if c.Provider == ProviderOllama {
		u, err := url.Parse(c.OllamaHost)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %q", ErrInvalidOllamaHost, c.OllamaHost)
		}
	}

	if c.Agent.MaxIterations < 1 || c.Agent.MaxIterations > 10 {
		return fmt.Errorf("%w: %d (must be within [1, 10])", ErrInvalidMaxIterations, c.Agent.MaxIterations)
	}

	if c.Agent.TopK < 1 || c.Agent.TopK > 50 {
		return fmt.Errorf("%w: %d (must be within [1, 50])", ErrInvalidTopK, c.Agent.TopK)
	}

	if u, err := url.Parse(c.Tavily.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTavilyBaseURL, c.Tavily.BaseURL)
	}

	if len(c.JobSites) == 0 {
		return fmt.Errorf("%w: at least one job site is required", ErrInvalidJobSites)
	}
	for _, site := range c.JobSites {
		if strings.TrimSpace(site) == "" {
			return fmt.Errorf("%w: empty job site entry", ErrInvalidJobSites)
		}
	}

	if err := c.Salary.validate(); err != nil {
		return err
	}

	return nil
}
