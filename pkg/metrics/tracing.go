package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// TraceMethodCall starts a segment named "<struct> <method>" on the
// transaction carried by ctx. When ctx has no transaction but does carry an
// application, a background transaction is started and ended with the
// tracer. Without either, the returned tracer is nil and every method on it
// is a no-op.
func TraceMethodCall(ctx context.Context, structOrPackageName, methodName string) *MethodTracer {
	name := structOrPackageName + " " + methodName

	if txn := newrelic.FromContext(ctx); txn != nil {
		return &MethodTracer{
			txn: txn,
			seg: txn.StartSegment(name),
		}
	}

	app, ok := applicationFrom(ctx)
	if !ok {
		return nil
	}

	txn := app.StartTransaction(name)
	return &MethodTracer{
		txn:   txn,
		seg:   txn.StartSegment(methodName),
		owned: true,
	}
}

// MethodTracer collects analytics for a method call.
type MethodTracer struct {
	txn   *newrelic.Transaction
	seg   *newrelic.Segment
	owned bool
}

// AddAttribute adds a key-value pair metadata to the method trace
func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

// AddAttributes adds a set of key-value pair metadata to the method trace
func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	if t == nil {
		return
	}

	for key, value := range attributes {
		t.seg.AddAttribute(key, value)
	}
}

// OnError notices err on the transaction. A nil err is ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.txn.NoticeError(err)
}

// End completes the segment, and the transaction if the tracer started it.
func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()
	if t.owned {
		t.txn.End()
	}
}
