// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/xorname"
)

func TestEncodeDecodePrefixRoundTrip(t *testing.T) {
	require := require.New(t)

	var name xorname.Name
	name[0] = 0xAC
	p := xorname.NewPrefix(name, 5)

	encoded := EncodePrefix(p)
	decoded, err := DecodePrefix(encoded)
	require.NoError(err)
	require.Equal(p, decoded)
}

func TestDecodePrefixTruncated(t *testing.T) {
	require := require.New(t)

	_, err := DecodePrefix([]byte{1, 2, 3})
	require.ErrorIs(err, ErrTruncated)
}

func TestEncodeUserMessageRoundTrip(t *testing.T) {
	require := require.New(t)

	payload := []byte("hello section")
	encoded := EncodeUserMessage(payload)
	decoded, err := DecodeUserMessage(encoded)
	require.NoError(err)
	require.Equal(payload, decoded)
}

func TestEncodePublicKeyNilIsEmpty(t *testing.T) {
	require := require.New(t)
	require.Empty(EncodePublicKey(nil))
}

func TestEncodePublicKeyNonNil(t *testing.T) {
	require := require.New(t)

	sk, err := bls.NewSecretKey()
	require.NoError(err)

	encoded := EncodePublicKey(sk.PublicKey())
	require.NotEmpty(encoded)
}

func TestPingVariantHasEmptyBody(t *testing.T) {
	require := require.New(t)
	require.Empty(EncodePing())

	msg := Message{Variant: Variant{Kind: VariantPing}}
	require.Equal(VariantPing, msg.Variant.Kind)
}
