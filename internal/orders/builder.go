package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	orderconfig "github.com/polymarket/go-order-utils/pkg/config"
	"github.com/polymarket/go-order-utils/pkg/model"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/polyclob/internal/domain"
)

const (
	exchangeDomainName    = "Polymarket CTF Exchange"
	exchangeDomainVersion = "1"
	orderPrimaryType      = "Order"

	// Taker address: zero address = public order
	zeroAddress = "0x0000000000000000000000000000000000000000"

	// amountDecimals is the fixed-point scale of makerAmount/takerAmount (USDC has 6 decimals).
	amountDecimals = 6

	defaultExpiry = 30 * 24 * time.Hour
)

// saltLimit keeps the salt representable as a JSON number on the server side.
var saltLimit = new(big.Int).Lsh(big.NewInt(1), 53)

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	orderPrimaryType: {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "taker", Type: "address"},
		{Name: "tokenId", Type: "uint256"},
		{Name: "makerAmount", Type: "uint256"},
		{Name: "takerAmount", Type: "uint256"},
		{Name: "expiration", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "feeRateBps", Type: "uint256"},
		{Name: "side", Type: "uint8"},
		{Name: "signatureType", Type: "uint8"},
	},
}

// Builder turns a validated OrderIntent into EIP-712 typed data for the exchange contract.
type Builder struct {
	chainID         int64
	exchange        common.Address
	negRiskExchange common.Address

	salt func() (string, error)
	now  func() time.Time
}

// NewBuilder resolves the exchange contracts for chainID.
func NewBuilder(chainID int64) (*Builder, error) {
	contracts, err := orderconfig.GetContracts(chainID)
	if err != nil {
		return nil, fmt.Errorf("orders.NewBuilder: chain %d: %w", chainID, err)
	}
	return &Builder{
		chainID:         chainID,
		exchange:        contracts.Exchange,
		negRiskExchange: contracts.NegRiskExchange,
		salt:            randomSalt,
		now:             time.Now,
	}, nil
}

// Build returns the typed data to sign. signer is the signing address; maker
// is the funder when one is given, the signer otherwise.
func (b *Builder) Build(intent domain.OrderIntent, signer, funder string) (apitypes.TypedData, domain.OrderMessage, error) {
	salt, err := b.salt()
	if err != nil {
		return apitypes.TypedData{}, domain.OrderMessage{}, fmt.Errorf("orders.Build: salt: %w", err)
	}

	maker := signer
	if funder != "" {
		maker = funder
	}

	makerAmount, takerAmount := Amounts(intent.Price, intent.Size)

	expiresAt := intent.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = b.now().Add(defaultExpiry)
	}

	msg := domain.OrderMessage{
		Salt:          salt,
		Maker:         maker,
		Signer:        signer,
		Taker:         zeroAddress,
		TokenID:       intent.TokenID,
		MakerAmount:   makerAmount,
		TakerAmount:   takerAmount,
		Expiration:    strconv.FormatInt(expiresAt.Unix(), 10),
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          sideCode(intent.Side),
		SignatureType: int(model.EOA),
	}

	td := apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: orderPrimaryType,
		Domain:      b.domain(intent.NegRisk),
		Message:     toMessage(msg),
	}
	return td, msg, nil
}

func (b *Builder) domain(negRisk bool) apitypes.TypedDataDomain {
	contract := b.exchange
	if negRisk {
		contract = b.negRiskExchange
	}
	return apitypes.TypedDataDomain{
		Name:              exchangeDomainName,
		Version:           exchangeDomainVersion,
		ChainId:           math.NewHexOrDecimal256(b.chainID),
		VerifyingContract: contract.Hex(),
	}
}

// Amounts encodes size and size×price as 6-decimal fixed-point integers,
// truncating anything past the sixth decimal.
//
// makerAmount is always the share size and takerAmount always the notional,
// for both sides. Exchanges that swap the legs for SELL orders will read this
// encoding differently.
func Amounts(price, size float64) (makerAmount, takerAmount string) {
	s := decimal.NewFromFloat(size)
	p := decimal.NewFromFloat(price)
	maker := s.Shift(amountDecimals).Truncate(0)
	taker := s.Mul(p).Shift(amountDecimals).Truncate(0)
	return maker.String(), taker.String()
}

func toMessage(m domain.OrderMessage) apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"salt":          m.Salt,
		"maker":         m.Maker,
		"signer":        m.Signer,
		"taker":         m.Taker,
		"tokenId":       m.TokenID,
		"makerAmount":   m.MakerAmount,
		"takerAmount":   m.TakerAmount,
		"expiration":    m.Expiration,
		"nonce":         m.Nonce,
		"feeRateBps":    m.FeeRateBps,
		"side":          strconv.Itoa(m.Side),
		"signatureType": strconv.Itoa(m.SignatureType),
	}
}

func sideCode(s domain.Side) int {
	if s == domain.SideSell {
		return int(model.SELL)
	}
	return int(model.BUY)
}

func randomSalt() (string, error) {
	n, err := rand.Int(rand.Reader, saltLimit)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
