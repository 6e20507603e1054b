package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

type failureClass int

const (
	failureNone failureClass = iota
	failureParse
	failureEmpty
	failureTimeout
	failureRateLimit
	failureServer
	failureClient
)

// AttemptMetrics records how many completion calls a task took and how many
// of them were content retries (valid transport, unusable body).
type AttemptMetrics struct {
	Attempts       int
	ContentRetries int
}

type Executor struct {
	caller Caller
}

func NewExecutor(caller Caller) *Executor {
	return &Executor{caller: caller}
}

// RunJSON executes a completion request and decodes the JSON object embedded
// in the response into out. Transport failures retry with backoff when
// transient; malformed or invalid content retries with corrective feedback.
// Three attempts total, then an error the caller downgrades to "no result".
func (e *Executor) RunJSON(ctx context.Context, task string, req Request, out any, validate func() error) (AttemptMetrics, error) {
	metrics := AttemptMetrics{}
	feedback := ""
	for attempt := 1; attempt <= 3; attempt++ {
		metrics.Attempts = attempt
		call := req
		call.Prompt = req.Prompt + "\n\nRespond with only valid JSON matching the schema."
		if feedback != "" {
			call.Prompt += "\n\n" + feedback
		}

		raw, err := e.caller.Complete(ctx, call)
		if err != nil {
			class := classifyTransportError(err)
			if class == failureTimeout || class == failureRateLimit || class == failureServer {
				if attempt < 3 {
					if serr := sleepCtx(ctx, backoffDelay(attempt)); serr != nil {
						return metrics, serr
					}
					continue
				}
			}
			return metrics, fmt.Errorf("%s transport failure: %w", task, err)
		}

		raw = strings.TrimSpace(raw)
		if raw == "" {
			if attempt < 3 {
				metrics.ContentRetries++
				feedback = "Your previous response was empty. Respond with valid JSON."
				continue
			}
			return metrics, fmt.Errorf("%s failed: empty response", task)
		}

		clean := ExtractJSONObject(raw)
		if err := json.Unmarshal([]byte(clean), out); err != nil {
			if attempt < 3 {
				metrics.ContentRetries++
				feedback = "Your previous response was not valid JSON. Respond with only valid JSON."
				continue
			}
			return metrics, fmt.Errorf("%s failed json parse: %w", task, err)
		}
		if validate != nil {
			if err := validate(); err != nil {
				if attempt < 3 {
					metrics.ContentRetries++
					feedback = fmt.Sprintf("Your response failed validation: %s. Fix these issues.", err)
					continue
				}
				return metrics, fmt.Errorf("%s failed validation: %w", task, err)
			}
		}
		return metrics, nil
	}
	return metrics, fmt.Errorf("%s failed after retries", task)
}

// ExtractJSONObject pulls the first balanced JSON object out of free text,
// tolerating markdown code fences and prose around it.
func ExtractJSONObject(s string) string {
	s = stripCodeFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func classifyTransportError(err error) failureClass {
	msg := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return failureTimeout
	}
	switch {
	case strings.Contains(msg, "429"):
		return failureRateLimit
	case strings.Contains(msg, "status code: 5") || strings.Contains(msg, "server error"):
		return failureServer
	case strings.Contains(msg, "status code: 4"):
		return failureClient
	default:
		return failureServer
	}
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
