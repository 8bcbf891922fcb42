package slab_test

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/slab-network/oracled/pkg/slab"
	"github.com/slab-network/oracled/pkg/soltx"
	"github.com/stretchr/testify/require"
)

func TestEncodePushOraclePrice(t *testing.T) {
	p := slab.PushOraclePrice{
		PriceE6:   1_000_000,
		Timestamp: time.Unix(1700000000, 0),
	}

	buf := slab.EncodePushOraclePrice(p)
	require.Len(t, buf, slab.PushOraclePriceLen)
	require.Equal(t, "11"+"40420f0000000000"+"00f1536500000000", hex.EncodeToString(buf))

	decoded, err := slab.DecodePushOraclePrice(buf)
	require.NoError(t, err)
	require.Equal(t, p.PriceE6, decoded.PriceE6)
	require.True(t, p.Timestamp.Equal(decoded.Timestamp))
}

func TestDecodePushOraclePriceErrors(t *testing.T) {
	_, err := slab.DecodePushOraclePrice(make([]byte, 16))
	require.ErrorIs(t, err, slab.ErrInvalidLength)

	buf := make([]byte, slab.PushOraclePriceLen)
	buf[0] = 3
	_, err = slab.DecodePushOraclePrice(buf)
	require.ErrorIs(t, err, slab.ErrUnexpectedTag)
}

func TestNewPushOraclePriceInstruction(t *testing.T) {
	var program, authority, market soltx.PublicKey
	program[0], authority[0], market[0] = 1, 2, 3
	p := slab.PushOraclePrice{PriceE6: 42, Timestamp: time.Unix(1700000000, 0)}

	ix := slab.NewPushOraclePriceInstruction(program, authority, market, p)
	require.Equal(t, program, ix.ProgramID())

	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	require.Equal(t, authority, accounts[0].PublicKey)
	require.True(t, accounts[0].IsSigner)
	require.True(t, accounts[0].IsWritable)
	require.Equal(t, market, accounts[1].PublicKey)
	require.False(t, accounts[1].IsSigner)
	require.True(t, accounts[1].IsWritable)

	data, err := ix.Data()
	require.NoError(t, err)
	decoded, err := slab.DecodePushOraclePrice(data)
	require.NoError(t, err)
	require.Equal(t, p.PriceE6, decoded.PriceE6)
	require.Equal(t, p.Timestamp.Unix(), decoded.Timestamp.Unix())
}
