package models

import "encoding/json"

// KeyringType is the keyring type reported to the host.
const KeyringType = "Snap Keyring"

// AccountType identifies the kind of account a snap provides.
type AccountType string

// Supported account types.
const (
	AccountTypeEOA     AccountType = "eip155:eoa"
	AccountTypeERC4337 AccountType = "eip155:erc4337"
	AccountTypeP2WPKH  AccountType = "bip122:p2wpkh"
)

// Ethereum signing methods a snap account can support.
const (
	MethodPersonalSign         = "personal_sign"
	MethodSign                 = "eth_sign"
	MethodSignTransaction      = "eth_signTransaction"
	MethodSignTypedDataV1      = "eth_signTypedData_v1"
	MethodSignTypedDataV3      = "eth_signTypedData_v3"
	MethodSignTypedDataV4      = "eth_signTypedData_v4"
	MethodPrepareUserOperation = "eth_prepareUserOperation"
	MethodPatchUserOperation   = "eth_patchUserOperation"
	MethodSignUserOperation    = "eth_signUserOperation"
)

// Account is an account held by a snap. The address keeps the case the
// snap reported; lookups are case-insensitive.
type Account struct {
	ID      string         `json:"id"`
	Address string         `json:"address"`
	Options map[string]any `json:"options"`
	Methods []string       `json:"methods"`
	Type    AccountType    `json:"type"`
}

// Supports reports whether the account accepts method.
func (a Account) Supports(method string) bool {
	for _, m := range a.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// AccountEntry is a persisted account with its owning snap.
type AccountEntry struct {
	Account Account `json:"account"`
	SnapID  string  `json:"snapId"`
}

// KeyringState is the durable state handed to the host for persistence.
type KeyringState struct {
	Accounts map[string]AccountEntry `json:"accounts"`
}

// SnapInfo describes a snap as known by the host's snap directory.
type SnapInfo struct {
	Name           string   `json:"name"`
	Enabled        bool     `json:"enabled"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// SnapMetadata is the snap part of an InternalAccount's metadata.
type SnapMetadata struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// KeyringMetadata names the keyring holding an account.
type KeyringMetadata struct {
	Type string `json:"type"`
}

// AccountMetadata is attached to accounts returned to the host.
type AccountMetadata struct {
	Name    string          `json:"name"`
	Keyring KeyringMetadata `json:"keyring"`
	Snap    *SnapMetadata   `json:"snap,omitempty"`
}

// InternalAccount is the host-facing view of an account.
type InternalAccount struct {
	Account
	Metadata AccountMetadata `json:"metadata"`
}

// Request is the JSON-RPC-like request forwarded to a snap.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params,omitempty"`
}

// KeyringRequest is submitted to a snap for one signing operation.
type KeyringRequest struct {
	ID      string  `json:"id"`
	Scope   string  `json:"scope"`
	Account string  `json:"account"`
	Request Request `json:"request"`
}

// Redirect asks the host to send the user somewhere to finish a request.
type Redirect struct {
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// KeyringResponse is a snap's answer to a KeyringRequest. Result is only
// meaningful when Pending is false.
type KeyringResponse struct {
	Pending  bool            `json:"pending"`
	Result   json.RawMessage `json:"result,omitempty"`
	Redirect *Redirect       `json:"redirect,omitempty"`
}
