package logging

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomFormatter_Format(t *testing.T) {
	f := &CustomFormatter{SystemName: "tasks-service"}
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "Event ID: TEST, Description: something happened",
		Data:    logrus.Fields{"taskId": "abc", "attempt": 2},
	}

	out, err := f.Format(entry)
	require.NoError(t, err)

	line := string(out)
	assert.True(t, strings.HasPrefix(line, "Date: 2024-05-01, Time: 12:00:00, "), line)
	assert.Contains(t, line, "Event Source: tasks-service, ")
	assert.Contains(t, line, "Event Type: WARNING, ")
	assert.Contains(t, line, "Message: Event ID: TEST, Description: something happened, ")
	assert.Contains(t, line, "attempt=2 taskId=abc")
	assert.True(t, strings.HasSuffix(line, "\n"))
}
