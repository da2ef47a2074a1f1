package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// OrderSigner produces EIP-712 signatures. Key custody lives behind this interface.
type OrderSigner interface {
	// Address is the signing wallet address (0x-prefixed hex).
	Address() string

	// Funder is the address that holds the funds, or "" when it is the signer itself.
	Funder() string

	// SignTypedData returns the 65-byte signature as 0x-prefixed hex.
	// Implementations may block on user interaction; callers impose no timeout.
	SignTypedData(ctx context.Context, domain apitypes.TypedDataDomain, types apitypes.Types, primaryType string, message apitypes.TypedDataMessage) (string, error)
}
