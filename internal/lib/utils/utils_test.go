package utils

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]any{"n": 5, "rows": []any{}}))
	assert.Equal(t, "{\n  \"n\": 5,\n  \"rows\": []\n}\n", buf.String())
}

func TestWriteJSON_Unsupported(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteJSON(&buf, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
