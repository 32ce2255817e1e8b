package llm

import (
	"context"
	"strings"

	"incidentops/src/config"
	"incidentops/src/logger"
)

// New builds the generator described by cfg: the configured provider when
// real calls are enabled, otherwise the mock. The result is rate limited and
// logged. The returned close func releases provider clients.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (Generator, func() error, error) {
	noop := func() error { return nil }

	var (
		gen     Generator = NewMockGenerator()
		closeFn           = noop
	)
	if cfg.LLMEnabled() {
		switch cfg.LLM.Provider {
		case config.ProviderOpenAI:
			gen = NewOpenAIGenerator(cfg.LLM.OpenAIAPIKey, cfg.LLM.Model)
		case config.ProviderGemini:
			model := cfg.LLM.Model
			if strings.HasPrefix(model, "gpt-") {
				model = ""
			}
			g, err := NewGeminiGenerator(ctx, cfg.LLM.GeminiAPIKey, model)
			if err != nil {
				return nil, noop, err
			}
			gen, closeFn = g, g.Close
		}
		gen = NewRateLimited(gen, cfg.LLM.RateLimit, cfg.LLM.Burst)
		log.Info("[LLM] Using %s provider (rate limit %.1f/s)", cfg.LLM.Provider, cfg.LLM.RateLimit)
	} else {
		log.Info("[LLM] Real provider disabled, using mock mode")
	}

	return NewLogged(gen, log), closeFn, nil
}
