// adapters/builder.go
// -------------------
// Every per-API request type embeds builder. Setters record the first error
// they hit instead of returning it, so calls can be chained; that error is
// reported by Validate, Build, Query and Execute.
package adapters

import (
	"context"

	resilientmaps "github.com/opengovern/resilient-maps"
)

type builder struct {
	client *resilientmaps.Client
	req    *resilientmaps.Request
	err    error
}

func newBuilder(client *resilientmaps.Client, api resilientmaps.Api, service string, rule resilientmaps.Rule) builder {
	return builder{
		client: client,
		req:    resilientmaps.NewRequest(api, service, rule),
	}
}

func (b *builder) set(name, value string) {
	if b.err != nil {
		return
	}
	b.err = b.req.Set(name, value)
}

func (b *builder) del(name string) {
	if b.err != nil {
		return
	}
	b.err = b.req.Del(name)
}

func (b *builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = resilientmaps.Invalid(b.req.Api(), format, args...)
	}
}

// Request exposes the underlying lifecycle request.
func (b *builder) Request() *resilientmaps.Request {
	return b.req
}

func (b *builder) Validate() error {
	if b.err != nil {
		return b.err
	}
	return b.req.Validate()
}

// Build validates if needed and serializes the query with the client's key.
func (b *builder) Build() error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.req.State() == resilientmaps.StateBuilt {
		return nil
	}
	return b.req.Build(b.client.Key())
}

func (b *builder) Query() (string, error) {
	if b.err != nil {
		return "", b.err
	}
	return b.req.Query()
}

func (b *builder) execute(ctx context.Context, target any) (*resilientmaps.Result, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.client.Execute(ctx, b.req, resilientmaps.JSONEnvelope(target))
}
