package coc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTag(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{"#2PRGP0L22", "#2PRGP0L22"},
		{"2prgp0l22", "#2PRGP0L22"},
		{" 2PRGP0L22 ", "#2PRGP0L22"},
		{"# 2 PRG P0L22", "#2PRGP0L22"},
	}
	for _, tc := range cases {
		normalized, err := NormalizeTag(tc.raw)
		require.NoError(t, err, tc.raw)
		require.Equal(t, tc.expected, normalized)
	}
}

func TestNormalizeTagInvalid(t *testing.T) {
	for _, raw := range []string{"#INVALID!", "", "#", "hello world", "#ABC-DEF"} {
		_, err := NormalizeTag(raw)
		require.ErrorIs(t, err, ErrInvalidTag, raw)
	}
}

func TestEncodeTag(t *testing.T) {
	encoded, err := EncodeTag("#2PRGP0L22")
	require.NoError(t, err)
	require.Equal(t, "%232PRGP0L22", encoded)

	encoded, err = EncodeTag("2prgp0l22")
	require.NoError(t, err)
	require.Equal(t, "%232PRGP0L22", encoded)
}
