package vapidkey

import (
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_RoundTrip(t *testing.T) {
	for n := 0; n <= 70; n++ {
		b := make([]byte, n)
		_, err := rand.Read(b)
		require.NoError(t, err)

		encoded := Encode(b)
		decoded, err := Decode(encoded)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, b, decoded, "length %d", n)
	}
}

func TestDecode_PadsToStandardLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []byte
	}{
		{name: "no padding needed", input: "AQID", want: []byte{1, 2, 3}},
		{name: "two pad chars", input: "AQ", want: []byte{1}},
		{name: "one pad char", input: "AQI", want: []byte{1, 2}},
		{name: "url-safe alphabet", input: "-_-_", want: []byte{0xfb, 0xff, 0xbf}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			padded := tt.input
			for len(padded)%4 != 0 {
				padded += "="
			}
			std, err := base64.URLEncoding.DecodeString(padded)
			require.NoError(t, err)
			assert.Len(t, got, len(std))
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode("A")
	assert.Error(t, err)

	_, err = Decode("not base64!")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	kp, err := Generate()
	require.NoError(t, err)

	pub, err := DecodePublicKey(kp.PublicKey)
	require.NoError(t, err)
	assert.Len(t, pub, PublicKeySize)

	priv, err := Decode(kp.PrivateKey)
	require.NoError(t, err)
	assert.Len(t, priv, PrivateKeySize)

	other, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, kp.PublicKey, other.PublicKey)
}

func TestDecodePublicKey_WrongLength(t *testing.T) {
	_, err := DecodePublicKey(Encode([]byte{0x04, 1, 2, 3}))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}
