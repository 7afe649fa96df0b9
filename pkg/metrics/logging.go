package metrics

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// LogFormatter wraps a logrus.Formatter. Every entry is forwarded to New
// Relic with its fields folded into the message, and the formatted line is
// enriched with linking metadata.
//
// Based off of: https://github.com/newrelic/go-agent/blob/f1942e10f0819e2c854d5d7289eb0dc1c52a00af/v3/integrations/logcontext-v2/nrlogrus/formatter.go
type LogFormatter struct {
	app  *newrelic.Application
	next logrus.Formatter
}

func NewLogFormatter(app *newrelic.Application, next logrus.Formatter) *LogFormatter {
	return &LogFormatter{
		app:  app,
		next: next,
	}
}

func (f *LogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	line, err := f.next.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(line, "\n"))

	data := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  summarize(e),
	}

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(data)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(data)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// summarize renders the message followed by the entry's fields in key
// order. The error field, if any, comes last.
func summarize(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != logrus.ErrorKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Data[k])
	}
	if v, ok := e.Data[logrus.ErrorKey]; ok {
		if err, isErr := v.(error); isErr {
			fmt.Fprintf(&sb, " error=%q", err.Error())
		} else {
			fmt.Fprintf(&sb, " error=%v", v)
		}
	}
	return sb.String()
}
