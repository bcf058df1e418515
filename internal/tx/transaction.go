// Package tx turns signing inputs into the JSON params sent to snaps and
// masks snap results back into well-formed values.
//
// Results coming from a snap are untrusted: every mask keeps only the
// fields it knows, and fails if one of them is missing or malformed.
package tx

import (
	"encoding/hex"
	"math/big"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/address"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// EncodeBig encodes n as a 0x-prefixed hex quantity. nil encodes as "0x0".
func EncodeBig(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return "0x" + n.Text(16)
}

// EncodeUint64 encodes n as a 0x-prefixed hex quantity.
func EncodeUint64(n uint64) string {
	return EncodeBig(new(big.Int).SetUint64(n))
}

// EncodeBytes encodes b as 0x-prefixed hex data.
func EncodeBytes(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// Params builds the JSON object describing t, signed by from.
func Params(from string, t *models.Transaction) (map[string]any, error) {
	if t == nil {
		return nil, kerr.Validation("transaction is nil")
	}
	if t.ChainID == nil || t.ChainID.Sign() <= 0 {
		return nil, kerr.Validation("transaction chain id must be positive")
	}
	if t.To != "" {
		if err := address.Validate(models.AccountTypeEOA, t.To); err != nil {
			return nil, err
		}
	}

	p := map[string]any{
		"from":     from,
		"type":     EncodeUint64(uint64(t.Type)),
		"chainId":  EncodeBig(t.ChainID),
		"nonce":    EncodeUint64(t.Nonce),
		"gasLimit": EncodeUint64(t.GasLimit),
		"value":    EncodeBig(t.Value),
		"data":     EncodeBytes(t.Data),
	}
	if t.To != "" {
		p["to"] = t.To
	}

	switch t.Type {
	case models.TxTypeLegacy:
		p["gasPrice"] = EncodeBig(t.GasPrice)
	case models.TxTypeAccessList:
		p["gasPrice"] = EncodeBig(t.GasPrice)
		p["accessList"] = accessList(t.AccessList)
	case models.TxTypeDynamicFee:
		p["maxFeePerGas"] = EncodeBig(t.MaxFeePerGas)
		p["maxPriorityFeePerGas"] = EncodeBig(t.MaxPriorityFeePerGas)
		p["accessList"] = accessList(t.AccessList)
	default:
		return nil, kerr.Unsupported("transaction type %d is not supported", t.Type)
	}
	return p, nil
}

func accessList(list []models.AccessTuple) []models.AccessTuple {
	if list == nil {
		return []models.AccessTuple{}
	}
	return list
}

// Assemble attaches a masked signature to t.
func Assemble(t *models.Transaction, sig *Signature) *models.SignedTransaction {
	return &models.SignedTransaction{
		Transaction: *t,
		V:           sig.V,
		R:           sig.R,
		S:           sig.S,
	}
}
