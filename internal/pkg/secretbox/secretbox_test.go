package secretbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestBox_SealOpen(t *testing.T) {
	box, err := New(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("40817810099910004312")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "4312")

	again, err := box.Seal("40817810099910004312")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce должен быть случайным")

	opened, err := box.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "40817810099910004312", opened)
}

func TestBox_OpenTampered(t *testing.T) {
	box, err := New(testKey)
	require.NoError(t, err)

	sealed, err := box.Seal("12345678")
	require.NoError(t, err)

	tampered := []byte(sealed)
	if tampered[len(tampered)-3] == 'A' {
		tampered[len(tampered)-3] = 'B'
	} else {
		tampered[len(tampered)-3] = 'A'
	}
	_, err = box.Open(string(tampered))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = box.Open("not base64 !!")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestNew_InvalidKey(t *testing.T) {
	_, err := New("zz")
	assert.Error(t, err)

	_, err = New(strings.Repeat("ab", 16))
	assert.Error(t, err)
}
