// Package signer provides an in-process EIP-712 signer backed by a hex private key.
package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// LocalSigner implements ports.OrderSigner with a private key held in memory.
type LocalSigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	funder  string
}

// NewLocalSigner parses privateKeyHex (with or without 0x). funder is optional.
func NewLocalSigner(privateKeyHex, funder string) (*LocalSigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signer.NewLocalSigner: invalid private key: %w", err)
	}
	if funder != "" && !common.IsHexAddress(funder) {
		return nil, fmt.Errorf("signer.NewLocalSigner: invalid funder %q", funder)
	}
	if funder != "" {
		funder = common.HexToAddress(funder).Hex()
	}
	return &LocalSigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		funder:  funder,
	}, nil
}

// Address returns the checksummed signer address.
func (s *LocalSigner) Address() string {
	return s.address.Hex()
}

// Funder returns the configured funder, or "".
func (s *LocalSigner) Funder() string {
	return s.funder
}

// SignTypedData hashes the typed data per EIP-712 and signs the digest.
// The recovery id is shifted to 27/28.
func (s *LocalSigner) SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, primaryType string, message apitypes.TypedDataMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	digest, err := Digest(apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      domain,
		Message:     message,
	})
	if err != nil {
		return "", fmt.Errorf("signer.SignTypedData: %w", err)
	}

	sig, err := crypto.Sign(digest, s.key)
	if err != nil {
		return "", fmt.Errorf("signer.SignTypedData: sign: %w", err)
	}
	sig[64] += 27
	return hexutil.Encode(sig), nil
}

// Digest returns keccak256(0x19 0x01 ‖ domainSeparator ‖ hashStruct(message)).
func Digest(td apitypes.TypedData) ([]byte, error) {
	domainSeparator, err := td.HashStruct("EIP712Domain", td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("hash domain: %w", err)
	}
	messageHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("hash message: %w", err)
	}

	raw := make([]byte, 0, 2+len(domainSeparator)+len(messageHash))
	raw = append(raw, 0x19, 0x01)
	raw = append(raw, domainSeparator...)
	raw = append(raw, messageHash...)
	return crypto.Keccak256(raw), nil
}

// Recover returns the address that produced sig over td. Used to check signatures.
func Recover(td apitypes.TypedData, sig string) (common.Address, error) {
	raw, err := hexutil.Decode(sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("signer.Recover: decode: %w", err)
	}
	if len(raw) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signer.Recover: signature length %d", len(raw))
	}
	digest, err := Digest(td)
	if err != nil {
		return common.Address{}, fmt.Errorf("signer.Recover: %w", err)
	}

	sigCopy := make([]byte, len(raw))
	copy(sigCopy, raw)
	if sigCopy[64] >= 27 {
		sigCopy[64] -= 27
	}
	pub, err := crypto.SigToPub(digest, sigCopy)
	if err != nil {
		return common.Address{}, fmt.Errorf("signer.Recover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
