// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"testing"

	"github.com/luxfi/crypto/bls"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/elders/xorname"
)

func mustKey(t *testing.T) *bls.SecretKey {
	t.Helper()
	sk, err := bls.NewSecretKey()
	require.NoError(t, err)
	return sk
}

func TestChainAppendAndVerify(t *testing.T) {
	require := require.New(t)

	genesisSK := mustKey(t)
	genesisKI := KeyInfo{Prefix: xorname.Prefix{}, Version: 0, Key: genesisSK.PublicKey()}
	genesisSig, err := genesisSK.Sign(EncodeKeyInfo(genesisKI))
	require.NoError(err)

	c := New(ProofBlock{KeyInfo: genesisKI, Signature: genesisSig})
	require.Equal(1, c.Len())

	nextSK := mustKey(t)
	nextKI := KeyInfo{Prefix: xorname.Prefix{}, Version: 1, Key: nextSK.PublicKey()}
	nextSig, err := genesisSK.Sign(EncodeKeyInfo(nextKI))
	require.NoError(err)

	require.NoError(c.Append(ProofBlock{KeyInfo: nextKI, Signature: nextSig}))
	require.Equal(2, c.Len())

	last, err := c.LastKey()
	require.NoError(err)
	require.Equal(bls.PublicKeyToCompressedBytes(nextSK.PublicKey()), bls.PublicKeyToCompressedBytes(last))

	slice := c.SliceFrom(1)
	require.Equal(Full, Verify(slice, genesisSK.PublicKey()))
}

func TestChainAppendRejectsBadSignature(t *testing.T) {
	require := require.New(t)

	genesisSK := mustKey(t)
	genesisKI := KeyInfo{Prefix: xorname.Prefix{}, Version: 0, Key: genesisSK.PublicKey()}
	genesisSig, err := genesisSK.Sign(EncodeKeyInfo(genesisKI))
	require.NoError(err)
	c := New(ProofBlock{KeyInfo: genesisKI, Signature: genesisSig})

	impostorSK := mustKey(t)
	nextKI := KeyInfo{Prefix: xorname.Prefix{}, Version: 1, Key: mustKey(t).PublicKey()}
	badSig, err := impostorSK.Sign(EncodeKeyInfo(nextKI))
	require.NoError(err)

	err = c.Append(ProofBlock{KeyInfo: nextKI, Signature: badSig})
	require.ErrorIs(err, ErrInvalidNewSectionKey)
}

func TestVerifyUnknownWhenSliceStartsElsewhere(t *testing.T) {
	require := require.New(t)

	unrelatedSK := mustKey(t)
	ki := KeyInfo{Prefix: xorname.Prefix{}, Version: 5, Key: mustKey(t).PublicKey()}
	sig, err := mustKey(t).Sign(EncodeKeyInfo(ki))
	require.NoError(err)

	slice := ProofSlice{Blocks: []ProofBlock{{KeyInfo: ki, Signature: sig}}}
	require.Equal(Unknown, Verify(slice, unrelatedSK.PublicKey()))
}
