package orders

// auth.go: L1 proof of wallet control.
//
// The exchange derives L2 API credentials from a ClobAuth EIP-712 signature.
// The signature comes from the injected signer; the HMAC side (L2) lives in the
// HTTP adapter.

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/ports"
)

const (
	clobDomainName    = "ClobAuthDomain"
	clobDomainVersion = "1"
	clobAuthType      = "ClobAuth"
	// Message signed for deriving API keys
	clobAuthMessage = "This message attests that I control the given wallet"
)

var clobAuthTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	clobAuthType: {
		{Name: "address", Type: "address"},
		{Name: "timestamp", Type: "string"},
		{Name: "nonce", Type: "uint256"},
		{Name: "message", Type: "string"},
	},
}

// signClobAuth asks signer for a ClobAuth signature at ts with the given nonce.
func signClobAuth(ctx context.Context, signer ports.OrderSigner, chainID int64, ts time.Time, nonce int64) (domain.L1Auth, error) {
	timestamp := strconv.FormatInt(ts.Unix(), 10)
	nonceStr := strconv.FormatInt(nonce, 10)

	d := apitypes.TypedDataDomain{
		Name:    clobDomainName,
		Version: clobDomainVersion,
		ChainId: math.NewHexOrDecimal256(chainID),
	}
	msg := apitypes.TypedDataMessage{
		"address":   signer.Address(),
		"timestamp": timestamp,
		"nonce":     nonceStr,
		"message":   clobAuthMessage,
	}

	sig, err := signer.SignTypedData(ctx, d, clobAuthTypes, clobAuthType, msg)
	if err != nil {
		return domain.L1Auth{}, fmt.Errorf("orders.signClobAuth: %w", err)
	}
	return domain.L1Auth{
		Address:   signer.Address(),
		Signature: sig,
		Timestamp: timestamp,
		Nonce:     nonceStr,
	}, nil
}
