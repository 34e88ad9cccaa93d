package messaging

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/shandysiswandi/gofocus/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
)

// HeaderCorrelationID carries the correlation ID of the request that
// produced a message.
const HeaderCorrelationID = "cID"

// headerCarrier adapts message headers to the OpenTelemetry propagator.
type headerCarrier struct{ headers *[]Header }

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	*c.headers = slices.DeleteFunc(*c.headers, func(h Header) bool { return h.Key == key })
	*c.headers = append(*c.headers, Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// PublishJSON encodes v as the body and stamps the correlation ID and the
// trace context of ctx into the headers.
func PublishJSON(ctx context.Context, pub Publisher, destination, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var headers []Header
	if cID := instrument.GetCorrelationID(ctx); cID != "" {
		headers = append(headers, Header{Key: HeaderCorrelationID, Value: []byte(cID)})
	}
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{&headers})

	_, err = pub.Publish(ctx, destination, OutgoingMessage{Body: body, Key: []byte(key), Headers: headers})
	return err
}

// ContextFrom restores the producer's trace context and correlation ID.
// newID supplies a correlation ID when the message has none.
func ContextFrom(ctx context.Context, msg Message, newID func() string) context.Context {
	headers := msg.Headers()
	ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier{&headers})

	cID := HeaderValue(msg, HeaderCorrelationID)
	if cID == "" {
		cID = newID()
	}
	return instrument.SetCorrelationID(ctx, cID)
}
