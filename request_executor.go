package resilientmaps

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RequestExecutor drives the rate limit -> transport -> classify loop.
type RequestExecutor struct {
	client *Client
}

func NewRequestExecutor(client *Client) *RequestExecutor {
	return &RequestExecutor{client: client}
}

// ExecuteWithRetry sends a Built request until it succeeds, fails
// permanently, runs out of retry budget, or ctx ends. The request is consumed.
func (re *RequestExecutor) ExecuteWithRetry(ctx context.Context, req *Request, parse EnvelopeParser) (*Result, error) {
	c := re.client
	api := req.Api()

	if err := req.consume(); err != nil {
		return nil, err
	}
	url, err := req.URL(c.baseURL)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	log := c.log().With().
		Str("api", api.String()).
		Str("request_id", requestID).
		Logger()

	ctx, span := c.tracer.Start(ctx, "maps."+api.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("maps.api", api.String()),
			attribute.String("maps.service", req.Service()),
			attribute.String("maps.request_id", requestID),
		))
	defer span.End()

	start := c.now()
	bo := c.retry.newBackOff()
	attempts := 0

	finish := func(res *Result, err error) (*Result, error) {
		elapsed := c.now().Sub(start)
		span.SetAttributes(attribute.Int("maps.attempts", attempts))
		if err != nil {
			span.SetAttributes(attribute.String("maps.outcome", KindOf(err).String()))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetAttributes(attribute.String("maps.outcome", "success"))
			span.SetStatus(codes.Ok, "")
			res.Attempts = attempts
			res.Elapsed = elapsed
		}
		c.observer.ObserveResult(api, attempts, elapsed, err)
		return res, err
	}
	cancelled := func(cause error) (*Result, error) {
		log.Debug().Err(cause).Int("attempts", attempts).Msg("request cancelled")
		return finish(nil, &Error{Kind: KindCancelled, Api: api, Attempts: attempts, Err: cause})
	}

	for {
		if err := c.rateLimiter.Wait(ctx, api); err != nil {
			return cancelled(err)
		}

		attempts++
		log.Debug().Int("attempt", attempts).Msg("sending request")
		attemptStart := c.now()
		raw, terr := c.transport.Do(ctx, &TransportRequest{Method: http.MethodGet, URL: url})
		if terr != nil && ctx.Err() != nil {
			return cancelled(ctx.Err())
		}

		out := Classify(api, raw, terr, parse, c.now())
		c.observer.ObserveAttempt(api, attempts, out.Kind, c.now().Sub(attemptStart))

		switch out.Kind {
		case OutcomeSuccess:
			if attempts > 1 {
				log.Debug().Int("attempts", attempts).Msg("request succeeded after retries")
			}
			return finish(&Result{Body: raw.Body, Envelope: out.Envelope}, nil)
		case OutcomePermanent:
			out.Err.Attempts = attempts
			log.Error().Err(out.Err).Int("attempts", attempts).Msg("permanent failure, not retrying")
			return finish(nil, out.Err)
		}

		wait := nextWait(bo, c.retry, out.RetryAfter)
		if wait == backoff.Stop || (c.retry.MaxRetries > 0 && attempts > c.retry.MaxRetries) {
			log.Error().Err(out.Err).Int("attempts", attempts).Msg("retry budget exhausted")
			return finish(nil, &Error{
				Kind:       KindRetryBudgetExhausted,
				Api:        api,
				HTTPStatus: out.Err.HTTPStatus,
				Status:     out.Err.Status,
				Attempts:   attempts,
				Err:        out.Err,
			})
		}

		logRetry(log, out, attempts, wait)
		if err := sleepContext(ctx, wait); err != nil {
			return cancelled(err)
		}
	}
}

// nextWait advances the schedule. Jittered intervals are capped at
// MaxInterval. A server Retry-After hint replaces the computed interval but
// may not push the loop past MaxElapsedTime.
func nextWait(bo *backoff.ExponentialBackOff, rc RetryConfig, hint time.Duration) time.Duration {
	next := bo.NextBackOff()
	if next != backoff.Stop && rc.MaxInterval > 0 && next > rc.MaxInterval {
		next = rc.MaxInterval
	}
	if hint <= 0 {
		return next
	}
	if rc.MaxElapsedTime > 0 && bo.GetElapsedTime()+hint > rc.MaxElapsedTime {
		return backoff.Stop
	}
	return hint
}

func logRetry(log zerolog.Logger, out Outcome, attempt int, wait time.Duration) {
	ev := log.Warn().
		Err(out.Err).
		Int("attempt", attempt).
		Dur("backoff", wait)
	if out.RetryAfter > 0 {
		ev = ev.Dur("retry_after", out.RetryAfter)
	}
	ev.Msg("transient failure, retrying")
}
