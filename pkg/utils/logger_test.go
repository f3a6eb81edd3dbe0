// pkg/utils/logger_test.go

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	l := GetLogger("rafs-test")
	assert.Same(t, l, GetLogger("rafs-test"))

	dir := t.TempDir()
	first, second := filepath.Join(dir, "first.log"), filepath.Join(dir, "second.log")
	require.NoError(t, SetOutFile(first))
	SetLogLevel(logrus.DebugLevel)
	l.Debugf("hello %d", 1)
	require.NoError(t, SetOutFile(second))
	l.WithField("k", "v").Infof("bye")
	SetLogLevel(logrus.InfoLevel)
	l.Debugf("hidden")
	l.SetOutput(os.Stderr)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}/\d\d/\d\d [\d:.]+ rafs-test\[\d+\] <DEBUG>: hello 1\n$`, string(data))
	data, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Regexp(t, `<INFO>: bye map\[k:v\]\n$`, string(data))
	assert.NotContains(t, string(data), "hidden")

	assert.Error(t, SetOutFile(filepath.Join(dir, "missing", "x.log")))
}
