package expert

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aretw0/blueprint/pkg/ports"
	"golang.org/x/time/rate"
)

// Middleware decorates a Capability with a cross-cutting concern.
type Middleware func(ports.Capability) ports.Capability

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner ports.Capability, mws ...Middleware) ports.Capability {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit limits the request rate of a capability.
// If rps <= 0, the middleware is a no-op.
func RateLimit(rps float64, burst int) Middleware {
	return func(next ports.Capability) ports.Capability {
		if rps <= 0 {
			return next
		}
		if burst < 1 {
			burst = 1
		}
		return &rateLimited{next: next, rl: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type rateLimited struct {
	next ports.Capability
	rl   *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) Execute(ctx context.Context, system, prompt string, shape ports.Shape) (json.RawMessage, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}
	return c.next.Execute(ctx, system, prompt, shape)
}

// Logging logs every capability call at debug level and failures at warn.
func Logging(logger *slog.Logger) Middleware {
	return func(next ports.Capability) ports.Capability {
		return &logged{next: next, logger: logger.With("capability", next.Name())}
	}
}

type logged struct {
	next   ports.Capability
	logger *slog.Logger
}

func (c *logged) Name() string { return c.next.Name() }

func (c *logged) Execute(ctx context.Context, system, prompt string, shape ports.Shape) (json.RawMessage, error) {
	start := time.Now()
	out, err := c.next.Execute(ctx, system, prompt, shape)
	if err != nil {
		c.logger.WarnContext(ctx, "capability call failed", "shape", shape.Name, "duration", time.Since(start), "error", err)
		return nil, err
	}
	c.logger.DebugContext(ctx, "capability call", "shape", shape.Name, "duration", time.Since(start), "bytes", len(out))
	return out, nil
}
