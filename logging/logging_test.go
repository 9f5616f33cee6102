package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	oldOut := logrus.StandardLogger().Out
	oldLevel := logrus.GetLevel()
	logrus.SetOutput(&buf)
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetOutput(oldOut)
		logrus.SetLevel(oldLevel)
	})
	return &buf
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		pkg      string
		function string
	}{
		{name: "basic", pkg: "handle", function: "Release"},
		{name: "empty function", pkg: "trampoline", function: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.pkg, tt.function)
			assert.Equal(t, tt.function, l.fields["function"])
			assert.Equal(t, tt.pkg, l.fields["package"])
		})
	}
}

func TestWithErrorAndFields(t *testing.T) {
	buf := captureLogs(t)

	New("argstring", "Encode").
		WithError(errors.New("too long"), "encode").
		WithFields(logrus.Fields{"limit": 64}).
		Warn("encoding rejected")

	out := buf.String()
	assert.Contains(t, out, "too long")
	assert.Contains(t, out, "operation=encode")
	assert.Contains(t, out, "limit=64")
	assert.Contains(t, out, "package=argstring")
}

func TestWithErrorNil(t *testing.T) {
	l := New("handle", "Release").WithError(nil, "release")
	_, hasErr := l.fields["error"]
	assert.False(t, hasErr)
	assert.Equal(t, "release", l.fields["operation"])
}

func TestSetLevel(t *testing.T) {
	old := logrus.GetLevel()
	defer logrus.SetLevel(old)

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	require.NoError(t, SetLevel(""))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())

	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, logrus.WarnLevel, logrus.GetLevel())
}
