package acquire_test

import (
	"testing"

	"github.com/nikhilbhutani/narrator/internal/acquire"
	"github.com/nikhilbhutani/narrator/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf-8", []byte("héllo"), "héllo"},
		{"utf-8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hi")...), "hi"},
		{"utf-16le with bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"utf-16be with bom", []byte{0xFE, 0xFF, 0, 'h', 0, 'i'}, "hi"},
		{"windows-1252", []byte("caf\xe9 \x93quoted\x94"), "café “quoted”"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := acquire.DecodeText(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeText_Undecodable(t *testing.T) {
	t.Parallel()

	_, err := acquire.DecodeText([]byte("abc\x81\xff def"))
	require.Error(t, err)
	assert.Equal(t, apperr.UnsupportedEncoding, apperr.KindOf(err))
}
