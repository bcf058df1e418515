package models

import "math/big"

// Transaction types.
const (
	TxTypeLegacy     uint8 = 0
	TxTypeAccessList uint8 = 1
	TxTypeDynamicFee uint8 = 2
)

// AccessTuple is one entry of an EIP-2930 access list.
type AccessTuple struct {
	Address     string   `json:"address"`
	StorageKeys []string `json:"storageKeys"`
}

// Transaction is an unsigned EVM transaction to be signed by a snap.
// Fields that do not apply to Type are left nil.
type Transaction struct {
	Type                 uint8
	ChainID              *big.Int
	Nonce                uint64
	To                   string // empty for contract creation
	Value                *big.Int
	Data                 []byte
	GasLimit             uint64
	GasPrice             *big.Int
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
	AccessList           []AccessTuple
}

// SignedTransaction is a Transaction with the signature returned by a snap.
type SignedTransaction struct {
	Transaction
	V *big.Int
	R *big.Int
	S *big.Int
}

// EthBaseTransaction is a call bundled into a user operation.
type EthBaseTransaction struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
}

// EthGasLimits are the gas limits a snap may suggest for a user operation.
type EthGasLimits struct {
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
}

// EthBaseUserOperation is the partial user operation prepared by a snap.
type EthBaseUserOperation struct {
	Nonce                 string        `json:"nonce"`
	InitCode              string        `json:"initCode"`
	CallData              string        `json:"callData"`
	GasLimits             *EthGasLimits `json:"gasLimits,omitempty"`
	DummyPaymasterAndData string        `json:"dummyPaymasterAndData"`
	DummySignature        string        `json:"dummySignature"`
	BundlerURL            string        `json:"bundlerUrl"`
}

// EthUserOperation is an ERC-4337 user operation.
type EthUserOperation struct {
	Sender               string `json:"sender"`
	Nonce                string `json:"nonce"`
	InitCode             string `json:"initCode"`
	CallData             string `json:"callData"`
	CallGasLimit         string `json:"callGasLimit"`
	VerificationGasLimit string `json:"verificationGasLimit"`
	PreVerificationGas   string `json:"preVerificationGas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	PaymasterAndData     string `json:"paymasterAndData"`
	Signature            string `json:"signature"`
}

// EthUserOperationPatch is the set of user operation fields a snap may
// override.
type EthUserOperationPatch struct {
	PaymasterAndData     string `json:"paymasterAndData"`
	CallGasLimit         string `json:"callGasLimit,omitempty"`
	VerificationGasLimit string `json:"verificationGasLimit,omitempty"`
	PreVerificationGas   string `json:"preVerificationGas,omitempty"`
}
