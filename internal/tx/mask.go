package tx

import (
	"encoding/json"
	"math/big"
	"regexp"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

var (
	bytesRegex   = regexp.MustCompile(`^0x[0-9a-fA-F]*$`)
	uint256Regex = regexp.MustCompile(`^0x([1-9a-fA-F][0-9a-fA-F]{0,63}|0)$`)
	// Signers may left-pad signature scalars to 32 bytes.
	scalarRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)
	addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	urlRegex     = regexp.MustCompile(`^https?://\S+$`)
)

// Signature is the (v, r, s) triple returned for a transaction.
type Signature struct {
	V *big.Int
	R *big.Int
	S *big.Int
}

// object is a decoded JSON object whose fields are pulled out one by one.
type object struct {
	name   string
	fields map[string]json.RawMessage
	err    error
}

func decodeObject(name string, raw json.RawMessage) *object {
	o := &object{name: name}
	if err := json.Unmarshal(raw, &o.fields); err != nil || o.fields == nil {
		o.err = kerr.Validation("%s: expected an object, got %s", name, preview(raw))
	}
	return o
}

// str returns the string field key, which must match re. Missing optional
// fields yield "".
func (o *object) str(key string, re *regexp.Regexp, optional bool) string {
	if o.err != nil {
		return ""
	}
	raw, ok := o.fields[key]
	if !ok || string(raw) == "null" {
		if !optional {
			o.err = kerr.Validation("%s: missing field %q", o.name, key)
		}
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		o.err = kerr.Validation("%s: field %q must be a string", o.name, key)
		return ""
	}
	if !re.MatchString(s) {
		o.err = kerr.Validation("%s: field %q must match %s", o.name, key, re)
		return ""
	}
	return s
}

func (o *object) sub(key string) *object {
	if o.err != nil {
		return nil
	}
	raw, ok := o.fields[key]
	if !ok {
		return nil
	}
	child := decodeObject(o.name+"."+key, raw)
	if child.err != nil {
		o.err = child.err
		return nil
	}
	return child
}

func preview(raw json.RawMessage) string {
	const limit = 64
	if len(raw) == 0 {
		return "nothing"
	}
	if len(raw) > limit {
		return string(raw[:limit]) + "..."
	}
	return string(raw)
}

// MaskSignature extracts {r, s, v} from a signed transaction result.
// r and s must be scalars below the secp256k1 group order.
func MaskSignature(raw json.RawMessage) (*Signature, error) {
	o := decodeObject("transaction signature", raw)
	r := o.str("r", scalarRegex, false)
	s := o.str("s", scalarRegex, false)
	v := o.str("v", scalarRegex, false)
	if o.err != nil {
		return nil, o.err
	}

	sig := &Signature{V: parseQuantity(v), R: parseQuantity(r), S: parseQuantity(s)}
	n := btcec.S256().Params().N
	if sig.R.Cmp(n) >= 0 || sig.S.Cmp(n) >= 0 {
		return nil, kerr.Validation("transaction signature: r and s must be below the curve order")
	}
	return sig, nil
}

func parseQuantity(s string) *big.Int {
	n, _ := new(big.Int).SetString(s[2:], 16)
	return n
}

// MaskBytes expects a JSON string of 0x-prefixed hex data.
func MaskBytes(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", kerr.Validation("expected hex string, got %s", preview(raw))
	}
	if !bytesRegex.MatchString(s) {
		return "", kerr.Validation("expected hex string, got %q", s)
	}
	return s, nil
}

// MaskBaseUserOperation masks the result of eth_prepareUserOperation.
func MaskBaseUserOperation(raw json.RawMessage) (*models.EthBaseUserOperation, error) {
	o := decodeObject("user operation", raw)
	op := &models.EthBaseUserOperation{
		Nonce:                 o.str("nonce", uint256Regex, false),
		InitCode:              o.str("initCode", bytesRegex, false),
		CallData:              o.str("callData", bytesRegex, false),
		DummyPaymasterAndData: o.str("dummyPaymasterAndData", bytesRegex, false),
		DummySignature:        o.str("dummySignature", bytesRegex, false),
		BundlerURL:            o.str("bundlerUrl", urlRegex, false),
	}
	if limits := o.sub("gasLimits"); limits != nil {
		op.GasLimits = &models.EthGasLimits{
			CallGasLimit:         limits.str("callGasLimit", uint256Regex, false),
			VerificationGasLimit: limits.str("verificationGasLimit", uint256Regex, false),
			PreVerificationGas:   limits.str("preVerificationGas", uint256Regex, false),
		}
		if limits.err != nil {
			return nil, limits.err
		}
	}
	if o.err != nil {
		return nil, o.err
	}
	return op, nil
}

// MaskUserOperationPatch masks the result of eth_patchUserOperation.
func MaskUserOperationPatch(raw json.RawMessage) (*models.EthUserOperationPatch, error) {
	o := decodeObject("user operation patch", raw)
	patch := &models.EthUserOperationPatch{
		PaymasterAndData:     o.str("paymasterAndData", bytesRegex, false),
		CallGasLimit:         o.str("callGasLimit", uint256Regex, true),
		VerificationGasLimit: o.str("verificationGasLimit", uint256Regex, true),
		PreVerificationGas:   o.str("preVerificationGas", uint256Regex, true),
	}
	if o.err != nil {
		return nil, o.err
	}
	return patch, nil
}

// ValidateBaseTransactions checks the calls bundled into a user operation.
func ValidateBaseTransactions(txs []models.EthBaseTransaction) error {
	if len(txs) == 0 {
		return kerr.Validation("at least one transaction is required")
	}
	for i, t := range txs {
		if !addressRegex.MatchString(t.To) {
			return kerr.Validation("transaction %d: invalid to address %q", i, t.To)
		}
		if !uint256Regex.MatchString(t.Value) {
			return kerr.Validation("transaction %d: invalid value %q", i, t.Value)
		}
		if !bytesRegex.MatchString(t.Data) {
			return kerr.Validation("transaction %d: invalid data %q", i, t.Data)
		}
	}
	return nil
}
