package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSONObjectKeyOrdering(t *testing.T) {
	raw := []byte(`{"b": 1, "a": 2, "é": 3}`)
	out, err := CanonicalJSONFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"é":3}`, string(out))
}

func TestCanonicalJSONIntegerNotFloat(t *testing.T) {
	out, err := CanonicalJSONFromBytes([]byte(`{"ts": 1700000000, "frac": 1.5}`))
	require.NoError(t, err)
	assert.Equal(t, `{"frac":1.5,"ts":1700000000}`, string(out))
}

func TestCanonicalJSONEmptyDefaults(t *testing.T) {
	obj, err := CanonicalJSON(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(obj))

	arr, err := CanonicalJSON([]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "[]", string(arr))
}

func TestCanonicalJSONNested(t *testing.T) {
	raw := []byte(`{"scopes":["space:a:read","space:a:post"],"nested":{"z":1,"a":2}}`)
	out, err := CanonicalJSONFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, `{"nested":{"a":2,"z":1},"scopes":["space:a:read","space:a:post"]}`, string(out))
}

func TestBuilderNetstringFraming(t *testing.T) {
	b := NewBuilder("p2pspace/test/v0").String("abc").Int(0).Int(42).Count(2)
	want := "p2pspace/test/v0\n3:abc,1:0,2:42,1:2,"
	assert.Equal(t, want, string(b.Build()))
}

func TestBuilderJSONEmbedsCanonicalBytes(t *testing.T) {
	b := NewBuilder("p2pspace/test/v0").JSON(map[string]interface{}{"b": 1, "a": 2})
	want := "p2pspace/test/v0\n13:{\"a\":2,\"b\":1},"
	assert.Equal(t, want, string(b.Build()))
}
