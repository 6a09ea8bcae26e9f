package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgersync/internal/logging"
)

func TestNew(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		var buf bytes.Buffer

		log, err := logging.New("info", "text", &buf)
		require.NoError(t, err)

		log.Debug("hidden")
		log.Info("getting accounts", "count", 3)

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), `msg="getting accounts" count=3`)
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer

		log, err := logging.New("DEBUG", "json", &buf)
		require.NoError(t, err)

		log.Debug("detecting transfers")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "detecting transfers", line["msg"])
		assert.Equal(t, "DEBUG", line["level"])
	})

	t.Run("BadLevel", func(t *testing.T) {
		_, err := logging.New("loud", "text", &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("BadFormat", func(t *testing.T) {
		_, err := logging.New("info", "xml", &bytes.Buffer{})
		assert.ErrorContains(t, err, `"xml"`)
	})
}
