package serializer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Ref       *int64    `json:"ref,omitempty"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

func TestSerializers(t *testing.T) {
	ref := int64(7)
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	for _, s := range []Serializer{NewJSON(), NewMsgpack()} {
		t.Run(s.Name(), func(t *testing.T) {
			in := []*sample{
				{ID: 1, Name: "a", Ref: &ref, Tags: []string{"x"}, CreatedAt: now},
				{ID: 2, Name: "b", CreatedAt: now},
			}
			data, err := s.Marshal(in)
			require.NoError(t, err)
			assert.NotEmpty(t, data)

			var out []*sample
			require.NoError(t, s.Unmarshal(data, &out))
			require.Len(t, out, 2)
			assert.Equal(t, "a", out[0].Name)
			require.NotNil(t, out[0].Ref)
			assert.Equal(t, int64(7), *out[0].Ref)
			assert.Nil(t, out[1].Ref)
			assert.True(t, now.Equal(out[0].CreatedAt))
		})
	}
}

func TestMsgpack_BufferReuse(t *testing.T) {
	s := NewMsgpack()
	first, err := s.Marshal(map[string]any{"k": "first-value"})
	require.NoError(t, err)
	_, err = s.Marshal(map[string]any{"k": "second"})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, s.Unmarshal(first, &got))
	assert.Equal(t, "first-value", got["k"])
}

func TestMsgpack_DecodeError(t *testing.T) {
	var out []sample
	assert.Error(t, NewMsgpack().Unmarshal([]byte{0xc1}, &out))
}
