package llm

import (
	"context"
	"strings"

	"incidentops/src/logger"
)

const previewLen = 100

// Logged records request and response metadata for every completion.
type Logged struct {
	next   Generator
	logger logger.Logger
}

// NewLogged wraps next with request/response logging.
func NewLogged(next Generator, log logger.Logger) *Logged {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Logged{next: next, logger: log}
}

// Complete logs the request, delegates, then logs the outcome.
func (l *Logged) Complete(ctx context.Context, prompt string) Completion {
	l.logger.Debug("[LLM] REQUEST | prompt_length=%d | preview='%s'", len(prompt), preview(prompt))

	c := l.next.Complete(ctx, prompt)
	switch {
	case c.Mock:
		l.logger.Debug("[LLM] FALLBACK | reason=mock_mode_enabled")
	case c.Failure != "":
		l.logger.Error("[LLM] ERROR | model=%s | message='%s' | latency=%dms", c.Model, c.Failure, c.Latency.Milliseconds())
	default:
		parsed := "failed"
		if ExtractJSON(c.Text) != nil {
			parsed = "success"
		}
		l.logger.Info("[LLM] RESPONSE | model=%s | latency=%dms | response_length=%d | json=%s",
			c.Model, c.Latency.Milliseconds(), len(c.Text), parsed)
	}
	return c
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > previewLen {
		return s[:previewLen] + "..."
	}
	return s
}
