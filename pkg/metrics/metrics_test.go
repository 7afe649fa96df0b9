package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNoApplication(t *testing.T) {
	ctx := NewContext(context.Background(), nil)
	assert.Nil(t, ctx.Value(NewRelicContextKey))

	// None of these may panic without an application or transaction.
	RecordCount(ctx, "count", 1)
	RecordDuration(ctx, "duration", time.Second)
	RecordEvent(ctx, "event", map[string]interface{}{"key": "value"})

	tracer := TraceMethodCall(ctx, "metrics", "TestNoApplication")
	assert.Nil(t, tracer)
	tracer.AddAttribute("key", "value")
	tracer.AddAttributes(map[string]interface{}{"key": "value"})
	tracer.OnError(context.Canceled)
	tracer.End()
}

func TestSummarize(t *testing.T) {
	entry := logrus.NewEntry(logrus.StandardLogger())
	entry.Message = "submitted"
	assert.Equal(t, "submitted", summarize(entry))

	entry = entry.WithFields(logrus.Fields{
		"step":          1,
		"plan":          "create_community",
		logrus.ErrorKey: errors.New("boom"),
	})
	entry.Message = "failure"
	assert.Equal(t, `failure plan=create_community step=1 error="boom"`, summarize(entry))
}
