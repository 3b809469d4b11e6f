package log_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/dudk/ugen/log"
)

func TestWithLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected logrus.Level
	}{
		{level: "debug", expected: logrus.DebugLevel},
		{level: "warn", expected: logrus.WarnLevel},
		{level: "bogus", expected: log.GetLogger().GetLevel()},
		{level: "", expected: log.GetLogger().GetLevel()},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, log.WithLevel(test.level).GetLevel(), test.level)
	}
	var _ log.Logger = log.GetLogger()
}
