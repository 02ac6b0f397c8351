// Package explain turns a finished run into prose. It asks an external
// text-generation service first and falls back to locally built text when
// the service is unreachable, so a missing or failing endpoint can never
// stall the caller. It consumes the result set only; nothing here touches
// a run in progress.
package explain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/fricsim/internal/config"
	"github.com/san-kum/fricsim/internal/engine"
	"github.com/san-kum/fricsim/internal/surface"
)

// ErrUnavailable wraps every transport and protocol failure of the
// explanation service. Callers classify with errors.Is and degrade to
// Fallback.
var ErrUnavailable = errors.New("explain: explanation service unavailable")

// DefaultTimeout bounds one service round trip.
const DefaultTimeout = 10 * time.Second

// Request is the payload posted to the service: everything known about
// one finished run.
type Request struct {
	RunID    string            `json:"run_id"`
	Params   config.Params     `json:"params"`
	Surfaces []surface.Profile `json:"surfaces"`
	Results  []engine.Result   `json:"results"`
}

// Response is the service's reply.
type Response struct {
	Text string `json:"text"`
}

// Client talks to one explanation endpoint.
type Client struct {
	url string
	hc  *http.Client
	log *log.Logger
}

// New builds a client for the given endpoint URL. A nil logger silences
// the client.
func New(url string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		url: url,
		hc:  &http.Client{Timeout: DefaultTimeout},
		log: logger,
	}
}

// Explain posts the finished run and returns the service's prose. Any
// failure after encoding maps to ErrUnavailable; the request is
// cancellable through ctx.
func (c *Client) Explain(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("explain: encode request: %w", err)
	}

	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	hr.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(hr)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return out.Text, nil
}

// ExplainOrFallback never fails: a service error is logged and replaced
// with Fallback text. An empty endpoint URL skips the service entirely.
func (c *Client) ExplainOrFallback(ctx context.Context, req Request) string {
	if c.url != "" {
		text, err := c.Explain(ctx, req)
		if err == nil {
			return text
		}
		c.log.Warn("explanation service failed, using local text", "err", err)
	}
	return Fallback(&req.Params, req.Results)
}

// Fallback builds deterministic prose from the result set alone.
func Fallback(p *config.Params, results []engine.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A %.0f kg block was pushed with %.0f N (%s) toward a %.0f m mark.\n",
		p.Mass, p.AppliedForce, p.Mode, p.TargetDistance)
	for _, r := range results {
		switch {
		case r.Finished:
			fmt.Fprintf(&b, "On %s it finished in %.2f s, crossing the mark at %.2f m/s.\n",
				r.Surface, r.Elapsed, r.FinalVelocity)
		case r.EverMoved:
			fmt.Fprintf(&b, "On %s it broke away, but once the push faded friction bled its speed off and it halted for good at %.2f m.\n",
				r.Surface, r.Position)
		default:
			fmt.Fprintf(&b, "On %s the push never exceeded the %.2f N static ceiling and the block never moved.\n",
				r.Surface, r.StaticCeiling)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
