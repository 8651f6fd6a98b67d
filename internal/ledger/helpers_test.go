package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- strPtr Tests ---

func TestStrPtr(t *testing.T) {
	t.Run("non-empty string", func(t *testing.T) {
		p := strPtr("hello")
		require.NotNil(t, p)
		assert.Equal(t, "hello", *p)
	})

	t.Run("empty string returns nil", func(t *testing.T) {
		p := strPtr("")
		assert.Nil(t, p)
	})
}

// --- ensureJSON Tests ---

func TestEnsureJSON(t *testing.T) {
	t.Run("nil returns empty object", func(t *testing.T) {
		result := ensureJSON(nil)
		assert.Equal(t, json.RawMessage(`{}`), result)
	})

	t.Run("non-nil passthrough", func(t *testing.T) {
		data := json.RawMessage(`{"key":"value"}`)
		result := ensureJSON(data)
		assert.Equal(t, data, result)
	})
}

// --- mergeMeta Tests ---

func TestMergeMeta(t *testing.T) {
	t.Run("nil base with extras", func(t *testing.T) {
		result := mergeMeta(nil, map[string]interface{}{"game": "mines", "reason": "test"})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, "mines", m["game"])
		assert.Equal(t, "test", m["reason"])
	})

	t.Run("existing base with extras", func(t *testing.T) {
		base := json.RawMessage(`{"clientSeed":"abc"}`)
		result := mergeMeta(base, map[string]interface{}{"game": "plinko"})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, "abc", m["clientSeed"])
		assert.Equal(t, "plinko", m["game"])
	})

	t.Run("extras overwrite base", func(t *testing.T) {
		base := json.RawMessage(`{"game":"mines"}`)
		result := mergeMeta(base, map[string]interface{}{"game": "crash"})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, "crash", m["game"])
	})

	t.Run("empty extras", func(t *testing.T) {
		base := json.RawMessage(`{"key":"val"}`)
		result := mergeMeta(base, map[string]interface{}{})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, "val", m["key"])
	})

	t.Run("invalid base is dropped", func(t *testing.T) {
		base := json.RawMessage(`{invalid`)
		result := mergeMeta(base, map[string]interface{}{"game": "mines"})
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(result, &m))
		assert.Equal(t, "mines", m["game"])
		assert.Len(t, m, 1)
	})
}
