package tx

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

const from = "0xc728514df8a7f9271f4b7a4dd2aa6d2d723d3ee3"

func legacyTx() *models.Transaction {
	return &models.Transaction{
		Type:     models.TxTypeLegacy,
		ChainID:  big.NewInt(1),
		Nonce:    0xfffffffe,
		To:       "0xccccccccccccd000000000000000000000000000",
		Value:    big.NewInt(0x1869e),
		Data:     []byte{0x00},
		GasLimit: 0x26259fe,
		GasPrice: big.NewInt(1),
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "0x0", EncodeBig(nil))
	assert.Equal(t, "0x0", EncodeBig(big.NewInt(0)))
	assert.Equal(t, "0x1869e", EncodeBig(big.NewInt(0x1869e)))
	assert.Equal(t, "0x2", EncodeUint64(2))
	assert.Equal(t, "0x", EncodeBytes(nil))
	assert.Equal(t, "0x00ff", EncodeBytes([]byte{0x00, 0xff}))
}

func TestParams_Legacy(t *testing.T) {
	p, err := Params(from, legacyTx())
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"from":     from,
		"type":     "0x0",
		"chainId":  "0x1",
		"nonce":    "0xfffffffe",
		"gasLimit": "0x26259fe",
		"gasPrice": "0x1",
		"to":       "0xccccccccccccd000000000000000000000000000",
		"value":    "0x1869e",
		"data":     "0x00",
	}, p)
}

func TestParams_DynamicFee(t *testing.T) {
	tx := &models.Transaction{
		Type:                 models.TxTypeDynamicFee,
		ChainID:              big.NewInt(137),
		MaxFeePerGas:         big.NewInt(100),
		MaxPriorityFeePerGas: big.NewInt(2),
	}
	p, err := Params(from, tx)
	require.NoError(t, err)

	assert.Equal(t, "0x2", p["type"])
	assert.Equal(t, "0x89", p["chainId"])
	assert.Equal(t, "0x64", p["maxFeePerGas"])
	assert.Equal(t, "0x2", p["maxPriorityFeePerGas"])
	assert.Equal(t, []models.AccessTuple{}, p["accessList"])
	assert.NotContains(t, p, "to")
	assert.NotContains(t, p, "gasPrice")
}

func TestParams_Invalid(t *testing.T) {
	_, err := Params(from, nil)
	assert.True(t, kerr.IsValidation(err))

	tx := legacyTx()
	tx.ChainID = nil
	_, err = Params(from, tx)
	assert.True(t, kerr.IsValidation(err))

	tx = legacyTx()
	tx.Type = 3
	_, err = Params(from, tx)
	assert.True(t, kerr.IsUnsupported(err))

	tx = legacyTx()
	tx.To = "0x1234"
	_, err = Params(from, tx)
	assert.True(t, kerr.IsValidation(err))
}

func TestMaskSignature(t *testing.T) {
	raw := json.RawMessage(`{"r":"0x0","s":"0x1f","v":"0x27","nonce":"0x1","to":"0xevil"}`)
	sig, err := MaskSignature(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sig.R.Int64())
	assert.Equal(t, int64(0x1f), sig.S.Int64())
	assert.Equal(t, int64(0x27), sig.V.Int64())

	signed := Assemble(legacyTx(), sig)
	assert.Equal(t, "0xccccccccccccd000000000000000000000000000", signed.To, "extra result fields must not leak")
	assert.Equal(t, uint64(0xfffffffe), signed.Nonce)
}

func TestMaskSignature_Padded(t *testing.T) {
	raw := json.RawMessage(`{
		"r":"0x0f4b2c8e1d3a5f6b7c8d9e0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e",
		"s":"0x00000000000000000000000000000000000000000000000000000000000000ff",
		"v":"0x01"}`)
	sig, err := MaskSignature(raw)
	require.NoError(t, err)
	assert.Equal(t, "f4b2c8e1d3a5f6b7c8d9e0a1b2c3d4e5f60718293a4b5c6d7e8f90a1b2c3d4e", sig.R.Text(16))
	assert.Equal(t, int64(0xff), sig.S.Int64())
	assert.Equal(t, int64(1), sig.V.Int64())
}

func TestMaskSignature_Rejects(t *testing.T) {
	cases := map[string]string{
		"missing s":    `{"r":"0x1","v":"0x1b"}`,
		"not object":   `"0xsig"`,
		"bad hex":      `{"r":"0xzz","s":"0x1","v":"0x1b"}`,
		"too long":     `{"r":"0x00000000000000000000000000000000000000000000000000000000000000001","s":"0x1","v":"0x1b"}`,
		"empty":        `{"r":"0x","s":"0x1","v":"0x1b"}`,
		"number field": `{"r":1,"s":"0x1","v":"0x1b"}`,
		"over order":   `{"r":"0x1","s":"0xfffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141","v":"0x1b"}`,
	}
	for name, raw := range cases {
		_, err := MaskSignature(json.RawMessage(raw))
		require.Error(t, err, name)
		assert.True(t, kerr.IsValidation(err), name)
	}
}

func TestMaskBytes(t *testing.T) {
	s, err := MaskBytes(json.RawMessage(`"0xdeadBEEF"`))
	require.NoError(t, err)
	assert.Equal(t, "0xdeadBEEF", s)

	for _, raw := range []string{`"deadbeef"`, `{"sig":"0x00"}`, `42`, `null`} {
		_, err := MaskBytes(json.RawMessage(raw))
		assert.True(t, kerr.IsValidation(err), raw)
	}
}

func TestMaskBaseUserOperation(t *testing.T) {
	raw := json.RawMessage(`{
		"nonce": "0x1",
		"initCode": "0x",
		"callData": "0x70641a22",
		"gasLimits": {"callGasLimit": "0x58a83", "verificationGasLimit": "0xe8c4", "preVerificationGas": "0xc57c"},
		"dummyPaymasterAndData": "0x",
		"dummySignature": "0x0000",
		"bundlerUrl": "https://bundler.example.com/rpc",
		"extra": "dropped"
	}`)
	op, err := MaskBaseUserOperation(raw)
	require.NoError(t, err)
	assert.Equal(t, "0x1", op.Nonce)
	require.NotNil(t, op.GasLimits)
	assert.Equal(t, "0xe8c4", op.GasLimits.VerificationGasLimit)
	assert.Equal(t, "https://bundler.example.com/rpc", op.BundlerURL)

	_, err = MaskBaseUserOperation(json.RawMessage(`{"nonce":"0x1"}`))
	assert.True(t, kerr.IsValidation(err))

	bad := json.RawMessage(`{"nonce":"0x1","initCode":"0x","callData":"0x","gasLimits":{"callGasLimit":"0x1"},
		"dummyPaymasterAndData":"0x","dummySignature":"0x","bundlerUrl":"https://b"}`)
	_, err = MaskBaseUserOperation(bad)
	assert.True(t, kerr.IsValidation(err))
}

func TestMaskUserOperationPatch(t *testing.T) {
	patch, err := MaskUserOperationPatch(json.RawMessage(`{"paymasterAndData":"0x1234","callGasLimit":"0x10"}`))
	require.NoError(t, err)
	assert.Equal(t, "0x1234", patch.PaymasterAndData)
	assert.Equal(t, "0x10", patch.CallGasLimit)
	assert.Empty(t, patch.PreVerificationGas)

	_, err = MaskUserOperationPatch(json.RawMessage(`{"callGasLimit":"0x10"}`))
	assert.True(t, kerr.IsValidation(err))
}

func TestValidateBaseTransactions(t *testing.T) {
	ok := []models.EthBaseTransaction{{To: from, Value: "0x0", Data: "0x"}}
	assert.NoError(t, ValidateBaseTransactions(ok))
	assert.True(t, kerr.IsValidation(ValidateBaseTransactions(nil)))
	assert.True(t, kerr.IsValidation(ValidateBaseTransactions([]models.EthBaseTransaction{{To: "0x1", Value: "0x0", Data: "0x"}})))
}
