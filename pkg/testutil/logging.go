package testutil

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// Test binaries log at trace level, to stdout only when run with -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return
		}
	}
	logrus.SetOutput(io.Discard)
}

// DisableLogging silences the standard logger until the test ends.
func DisableLogging(t testing.TB) {
	original := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	t.Cleanup(func() {
		logrus.SetOutput(original)
	})
}
