package observability

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op without a DSN. Values of the scrubbed headers never
// leave the process.
func InitSentry(dsn, environment string, scrubbedHeaders ...string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrubEvent(event, scrubbedHeaders)
		},
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

func scrubEvent(event *sentry.Event, headers []string) *sentry.Event {
	if event == nil || event.Request == nil || len(event.Request.Headers) == 0 {
		return event
	}

	for _, name := range append([]string{"Authorization", "Cookie"}, headers...) {
		canonical := http.CanonicalHeaderKey(name)
		for key := range event.Request.Headers {
			if http.CanonicalHeaderKey(key) == canonical {
				event.Request.Headers[key] = "[Filtered]"
			}
		}
	}

	return event
}
