package gateway

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// Signer signs a serialized unsigned transaction, base64 in and out.
type Signer interface {
	PublicKey() string
	Sign(unsignedTxBase64 string) (string, error)
}

// LocalSigner signs with an in-process ed25519 keypair as the fee payer.
// Both the router and the bonding-curve service build transactions with the
// user as the sole required signer, so only the first signature slot is
// filled.
type LocalSigner struct {
	key    ed25519.PrivateKey
	pubkey string
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner derives a signer from a base58-encoded 64-byte keypair
// (the standard wallet-export format: seed followed by public key).
func NewLocalSigner(secretBase58 string) (*LocalSigner, error) {
	raw, err := base58.Decode(secretBase58)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	key := ed25519.PrivateKey(raw)
	return &LocalSigner{
		key:    key,
		pubkey: base58.Encode(key.Public().(ed25519.PublicKey)),
	}, nil
}

// PublicKey returns the base58 wallet address.
func (s *LocalSigner) PublicKey() string {
	return s.pubkey
}

// Sign fills the fee-payer signature slot of a serialized transaction.
// Wire layout: compact-u16 signature count, 64 bytes per signature, then the
// message, which is what gets signed.
func (s *LocalSigner) Sign(unsignedTxBase64 string) (string, error) {
	tx, err := base64.StdEncoding.DecodeString(unsignedTxBase64)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, offset, err := decodeCompactU16(tx)
	if err != nil {
		return "", fmt.Errorf("malformed transaction: %w", err)
	}
	if numSigs < 1 {
		return "", fmt.Errorf("transaction requires no signatures")
	}
	msgStart := offset + numSigs*64
	if msgStart >= len(tx) {
		return "", fmt.Errorf("transaction truncated: %d signatures in %d bytes", numSigs, len(tx))
	}

	sig := ed25519.Sign(s.key, tx[msgStart:])
	signed := make([]byte, len(tx))
	copy(signed, tx)
	copy(signed[offset:offset+64], sig)

	return base64.StdEncoding.EncodeToString(signed), nil
}

// decodeCompactU16 reads the shortvec length prefix used by the transaction
// wire format.
func decodeCompactU16(b []byte) (value, bytesRead int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(b) {
			return 0, 0, fmt.Errorf("truncated compact-u16")
		}
		value |= int(b[i]&0x7f) << (7 * i)
		if b[i]&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, fmt.Errorf("compact-u16 too long")
}
