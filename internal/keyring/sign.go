package keyring

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/caip"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/internal/tx"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

// TypedDataVersion selects the eth_signTypedData flavor.
type TypedDataVersion string

const (
	TypedDataV1 TypedDataVersion = "V1"
	TypedDataV3 TypedDataVersion = "V3"
	TypedDataV4 TypedDataVersion = "V4"
)

var typedDataMethods = map[TypedDataVersion]string{
	TypedDataV1: models.MethodSignTypedDataV1,
	TypedDataV3: models.MethodSignTypedDataV3,
	TypedDataV4: models.MethodSignTypedDataV4,
}

// SignTransaction asks the snap owning addr to sign t and returns t with
// the signature attached.
func (k *Keyring) SignTransaction(ctx context.Context, addr string, t *models.Transaction) (*models.SignedTransaction, error) {
	params, err := tx.Params(addr, t)
	if err != nil {
		return nil, err
	}
	scope, err := caip.ChainID(caip.NamespaceEIP155, t.ChainID.String())
	if err != nil {
		return nil, err
	}

	raw, err := k.submitRequest(ctx, addr, models.MethodSignTransaction, []any{params}, scope)
	if err != nil {
		return nil, err
	}
	sig, err := tx.MaskSignature(raw)
	if err != nil {
		return nil, err
	}
	return tx.Assemble(t, sig), nil
}

// SignTypedData signs EIP-712 data. Unknown or empty versions fall back to
// V1. The scope is taken from domain.chainId when data carries one.
func (k *Keyring) SignTypedData(ctx context.Context, addr string, data any, version TypedDataVersion) (string, error) {
	method, ok := typedDataMethods[version]
	if !ok {
		method = models.MethodSignTypedDataV1
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return "", kerr.Validation("typed data: %v", err)
	}

	var scope string
	if chainID := typedDataChainID(raw); chainID != "" {
		if scope, err = caip.ChainID(caip.NamespaceEIP155, chainID); err != nil {
			return "", err
		}
	}

	result, err := k.submitRequest(ctx, addr, method, []any{addr, json.RawMessage(raw)}, scope)
	if err != nil {
		return "", err
	}
	return tx.MaskBytes(result)
}

// typedDataChainID returns domain.chainId as a decimal or hex string, or ""
// when the data has none. V1 data is an array and never has one.
func typedDataChainID(raw []byte) string {
	var msg struct {
		Domain struct {
			ChainID any `json:"chainId"`
		} `json:"domain"`
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		return ""
	}
	switch v := msg.Domain.ChainID.(type) {
	case json.Number:
		return v.String()
	case string:
		return v
	default:
		return ""
	}
}

// SignMessage signs a 32-byte hash with eth_sign.
func (k *Keyring) SignMessage(ctx context.Context, addr, hash string) (string, error) {
	raw, err := k.submitRequest(ctx, addr, models.MethodSign, []any{addr, hash}, "")
	if err != nil {
		return "", err
	}
	return tx.MaskBytes(raw)
}

// SignPersonalMessage signs data with personal_sign.
func (k *Keyring) SignPersonalMessage(ctx context.Context, addr, data string) (string, error) {
	raw, err := k.submitRequest(ctx, addr, models.MethodPersonalSign, []any{data, addr}, "")
	if err != nil {
		return "", err
	}
	return tx.MaskBytes(raw)
}

// PrepareUserOperation asks an ERC-4337 account to build a user operation
// executing txs.
func (k *Keyring) PrepareUserOperation(ctx context.Context, addr string, txs []models.EthBaseTransaction) (*models.EthBaseUserOperation, error) {
	if err := tx.ValidateBaseTransactions(txs); err != nil {
		return nil, err
	}
	raw, err := k.submitRequest(ctx, addr, models.MethodPrepareUserOperation, txs, "")
	if err != nil {
		return nil, err
	}
	return tx.MaskBaseUserOperation(raw)
}

// PatchUserOperation lets the account adjust op before it is signed.
func (k *Keyring) PatchUserOperation(ctx context.Context, addr string, op models.EthUserOperation) (*models.EthUserOperationPatch, error) {
	raw, err := k.submitRequest(ctx, addr, models.MethodPatchUserOperation, []any{op}, "")
	if err != nil {
		return nil, err
	}
	return tx.MaskUserOperationPatch(raw)
}

// SignUserOperation signs op.
func (k *Keyring) SignUserOperation(ctx context.Context, addr string, op models.EthUserOperation) (string, error) {
	raw, err := k.submitRequest(ctx, addr, models.MethodSignUserOperation, []any{op}, "")
	if err != nil {
		return "", err
	}
	return tx.MaskBytes(raw)
}

// ExportAccount always fails: snap accounts never leave the snap.
func (k *Keyring) ExportAccount(_ context.Context, addr string) (string, error) {
	return "", kerr.Unsupported("exporting account %s is not supported", addr)
}
