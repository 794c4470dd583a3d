package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReport(t *testing.T) {
	rep, err := buildReport()
	require.NoError(t, err)

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, encodeReport(&buf, formatYAML, rep))

		var got report
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, *rep, got)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, encodeReport(&buf, formatJSON, rep))
		require.True(t, json.Valid(buf.Bytes()), "output is not valid JSON:\n%s", buf.String())

		var got map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "0x0023000800000000", got["syscall"].(map[string]interface{})["star"])
	})

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, encodeReport(&buf, formatTOML, rep))

		var got report
		require.NoError(t, toml.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, rep.Descriptors, got.Descriptors)
		assert.Equal(t, rep.Syscall, got.Syscall)
		assert.Contains(t, buf.String(), "[[descriptors]]")
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		assert.Error(t, encodeReport(&buf, "xml", rep))
		assert.Zero(t, buf.Len())
	})
}
