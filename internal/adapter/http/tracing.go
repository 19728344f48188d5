package httpadapter

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "xiuxian/internal/adapter/http"

// headerCarrier adapts hertz request headers to the otel propagator.
type headerCarrier struct {
	ctx *app.RequestContext
}

var _ propagation.TextMapCarrier = headerCarrier{}

func (c headerCarrier) Get(key string) string {
	return string(c.ctx.Request.Header.Peek(key))
}

func (c headerCarrier) Set(key, value string) {
	c.ctx.Request.Header.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, 8)
	c.ctx.Request.Header.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

// tracingMiddleware continues an incoming W3C trace and opens one server span
// per request, named after the matched route.
func tracingMiddleware() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		c = otel.GetTextMapPropagator().Extract(c, headerCarrier{ctx: ctx})
		route := ctx.FullPath()
		if route == "" {
			route = string(ctx.Path())
		}
		c, span := otel.Tracer(tracerName).Start(c, string(ctx.Method())+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", string(ctx.Method())),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		ctx.Next(c)

		code := ctx.Response.StatusCode()
		span.SetAttributes(attribute.Int("http.response.status_code", code))
		if code >= 500 {
			span.SetStatus(codes.Error, "server error")
		}
	}
}
