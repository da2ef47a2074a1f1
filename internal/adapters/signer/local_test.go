package signer_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclob/internal/adapters/signer"
	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/orders"
)

// Well-known throwaway key (hardhat account #0).
const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func clobAuthTypedData(address string) apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"ClobAuth": {
				{Name: "address", Type: "address"},
				{Name: "timestamp", Type: "string"},
				{Name: "nonce", Type: "uint256"},
				{Name: "message", Type: "string"},
			},
		},
		PrimaryType: "ClobAuth",
		Domain: apitypes.TypedDataDomain{
			Name:    "ClobAuthDomain",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(137),
		},
		Message: apitypes.TypedDataMessage{
			"address":   address,
			"timestamp": "1700000000",
			"nonce":     "0",
			"message":   "This message attests that I control the given wallet",
		},
	}
}

func TestNewLocalSigner_Address(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)
	assert.Equal(t, testAddress, s.Address())
	assert.Empty(t, s.Funder())
}

func TestNewLocalSigner_InvalidKey(t *testing.T) {
	_, err := signer.NewLocalSigner("zz", "")
	assert.Error(t, err)
}

func TestNewLocalSigner_InvalidFunder(t *testing.T) {
	_, err := signer.NewLocalSigner(testKey, "nope")
	assert.Error(t, err)
}

func TestSignTypedData_RecoversSigner(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)

	td := clobAuthTypedData(s.Address())
	sig, err := s.SignTypedData(context.Background(), td.Domain, td.Types, td.PrimaryType, td.Message)
	require.NoError(t, err)

	assert.Len(t, sig, 2+65*2)
	v := sig[len(sig)-2:]
	assert.Contains(t, []string{"1b", "1c"}, v, "recovery id is 27 or 28")

	addr, err := signer.Recover(td, sig)
	require.NoError(t, err)
	assert.Equal(t, testAddress, addr.Hex())
}

func TestSignTypedData_Deterministic(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)

	td := clobAuthTypedData(s.Address())
	a, err := s.SignTypedData(context.Background(), td.Domain, td.Types, td.PrimaryType, td.Message)
	require.NoError(t, err)
	b, err := s.SignTypedData(context.Background(), td.Domain, td.Types, td.PrimaryType, td.Message)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSignTypedData_CancelledContext(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	td := clobAuthTypedData(s.Address())
	_, err = s.SignTypedData(ctx, td.Domain, td.Types, td.PrimaryType, td.Message)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignTypedData_BadMessage(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)

	td := clobAuthTypedData("not-an-address")
	_, err = s.SignTypedData(context.Background(), td.Domain, td.Types, td.PrimaryType, td.Message)
	assert.Error(t, err)
}

func TestSignTypedData_OrderFromBuilder(t *testing.T) {
	s, err := signer.NewLocalSigner(testKey, "")
	require.NoError(t, err)

	b, err := orders.NewBuilder(137)
	require.NoError(t, err)
	td, _, err := b.Build(domain.OrderIntent{
		TokenID:   "71321045679252212594626385532706912750332728571942532289631379312455583992563",
		Side:      domain.SideBuy,
		Price:     0.55,
		Size:      10,
		OrderType: domain.OrderTypeGTC,
	}, s.Address(), "")
	require.NoError(t, err)

	sig, err := s.SignTypedData(context.Background(), td.Domain, td.Types, td.PrimaryType, td.Message)
	require.NoError(t, err)

	addr, err := signer.Recover(td, sig)
	require.NoError(t, err)
	assert.Equal(t, s.Address(), addr.Hex())
}
