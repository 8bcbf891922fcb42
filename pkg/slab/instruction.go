// Package slab holds the wire layouts of the perpetuals program consumed by
// the oracle daemon.
package slab

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/slab-network/oracled/pkg/soltx"
)

const (
	// TagPushOraclePrice is the instruction discriminator for an admin oracle
	// price push.
	TagPushOraclePrice uint8 = 17
	// PushOraclePriceLen is the encoded size of a price push payload.
	PushOraclePriceLen = 17
)

var (
	ErrInvalidLength = errors.New("invalid instruction length")
	ErrUnexpectedTag = errors.New("unexpected instruction tag")
)

// PushOraclePrice is the payload setting the authority price of a market.
type PushOraclePrice struct {
	PriceE6   uint64
	Timestamp time.Time
}

// EncodePushOraclePrice lays out tag | priceE6 u64 LE | unix seconds i64 LE.
func EncodePushOraclePrice(p PushOraclePrice) []byte {
	buf := make([]byte, PushOraclePriceLen)
	buf[0] = TagPushOraclePrice
	binary.LittleEndian.PutUint64(buf[1:9], p.PriceE6)
	binary.LittleEndian.PutUint64(buf[9:17], uint64(p.Timestamp.Unix()))
	return buf
}

func DecodePushOraclePrice(buf []byte) (PushOraclePrice, error) {
	if len(buf) != PushOraclePriceLen {
		return PushOraclePrice{}, fmt.Errorf(
			"%w: got %d, want %d", ErrInvalidLength, len(buf), PushOraclePriceLen,
		)
	}
	if buf[0] != TagPushOraclePrice {
		return PushOraclePrice{}, fmt.Errorf("%w: %d", ErrUnexpectedTag, buf[0])
	}
	return PushOraclePrice{
		PriceE6:   binary.LittleEndian.Uint64(buf[1:9]),
		Timestamp: time.Unix(int64(binary.LittleEndian.Uint64(buf[9:17])), 0),
	}, nil
}

// NewPushOraclePriceInstruction wraps the payload with the accounts the
// program expects: the oracle authority (signer) and the slab.
func NewPushOraclePriceInstruction(
	programID, authority, slab soltx.PublicKey, p PushOraclePrice,
) soltx.Instruction {
	return soltx.NewInstruction(
		programID, EncodePushOraclePrice(p),
		&soltx.AccountMeta{PublicKey: authority, IsSigner: true, IsWritable: true},
		&soltx.AccountMeta{PublicKey: slab, IsWritable: true},
	)
}
