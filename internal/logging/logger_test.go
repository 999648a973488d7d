package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestFormatter_Format(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "kyc record fetch failed",
		Data:    logrus.Fields{"user_id": 42, "attempt": 1},
		Buffer:  &bytes.Buffer{},
	}

	out, err := (&Formatter{SystemName: "kyc-review"}).Format(entry)
	require.NoError(t, err)

	line := string(out)
	require.True(t, strings.HasPrefix(line, "2025-03-01T10:00:00Z source=kyc-review level=WARNING"))
	require.Contains(t, line, `msg="kyc record fetch failed"`)
	require.Contains(t, line, "event_id=")
	// fields are sorted
	require.Less(t, strings.Index(line, "attempt=1"), strings.Index(line, "user_id=42"))
	require.True(t, strings.HasSuffix(line, "\n"))
}
