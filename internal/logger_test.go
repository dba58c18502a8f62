package internal

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseLogLevel(t *testing.T) {
	testCases := []struct {
		input     string
		expected  slog.Level
		expectErr bool
	}{
		{input: "", expected: slog.LevelInfo},
		{input: "debug", expected: slog.LevelDebug},
		{input: "INFO", expected: slog.LevelInfo},
		{input: "warning", expected: slog.LevelWarn},
		{input: "error", expected: slog.LevelError},
		{input: "verbose", expected: slog.LevelInfo, expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert := assert.New(t)

			level, err := ParseLogLevel(tc.input)
			if tc.expectErr {
				assert.Error(err)
			} else {
				assert.NoError(err)
			}
			assert.Equal(tc.expected, level)
		})
	}
}
