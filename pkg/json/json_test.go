package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func TestMarshalToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MarshalToWriter(&buf, report{Name: "a<b", Type: "text"}, false))
	assert.Equal(t, `{"name":"a<b","type":"text"}`+"\n", buf.String())

	buf.Reset()
	require.NoError(t, MarshalToWriter(&buf, report{Name: "x"}, true))
	assert.Contains(t, buf.String(), "\n  \"name\": \"x\"")
}

func TestDecodeStrict(t *testing.T) {
	var r report
	require.NoError(t, DecodeStrict(strings.NewReader(`{"name":"Score","type":"int8"}`), &r))
	assert.Equal(t, report{Name: "Score", Type: "int8"}, r)

	assert.Error(t, DecodeStrict(strings.NewReader(`{"name":"Score","extra":1}`), &r))
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("data")
	PutBuffer(buf)
	assert.Equal(t, 0, GetBuffer().Len())
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(report{Name: "Grade", Type: "category"})
	require.NoError(t, err)

	var r report
	require.NoError(t, Unmarshal(data, &r))
	assert.Equal(t, "category", r.Type)
}
