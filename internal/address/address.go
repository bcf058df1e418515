// Package address validates account addresses reported by snaps and
// produces the forms the host displays.
//
// Validation is by account type: EVM accounts must be 20-byte hex
// addresses (mixed-case input must carry a valid EIP-55 checksum) and
// bip122 P2WPKH accounts must be version-0 bech32 addresses with a 20-byte
// program. Unknown account types are only required to be non-empty.
package address

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"golang.org/x/crypto/sha3"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
	"github.com/olehkaliuzhnyi/snap-keyring/pkg/models"
)

var ethAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Bitcoin bech32 human-readable parts accepted for P2WPKH accounts.
var bech32HRPs = map[string]bool{"bc": true, "tb": true, "bcrt": true}

// Validate checks that addr is well formed for accountType.
func Validate(accountType models.AccountType, addr string) error {
	if addr == "" {
		return kerr.Validation("account address is empty")
	}
	switch {
	case strings.HasPrefix(string(accountType), "eip155:"):
		return validateEVM(addr)
	case accountType == models.AccountTypeP2WPKH:
		return validateP2WPKH(addr)
	default:
		return nil
	}
}

func validateEVM(addr string) error {
	if !ethAddressRegex.MatchString(addr) {
		return kerr.Validation("invalid EVM address %q", addr)
	}
	body := addr[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	want, err := Checksum(addr)
	if err != nil {
		return err
	}
	if want != addr {
		return kerr.Validation("invalid EIP-55 checksum for address %q", addr)
	}
	return nil
}

func validateP2WPKH(addr string) error {
	hrp, data, err := bech32.Decode(addr)
	if err != nil {
		return kerr.Validation("invalid bech32 address %q: %v", addr, err)
	}
	if !bech32HRPs[hrp] {
		return kerr.Validation("unexpected bech32 prefix %q in address %q", hrp, addr)
	}
	if len(data) == 0 || data[0] != 0 {
		return kerr.Validation("address %q is not a version 0 witness program", addr)
	}
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return kerr.Validation("invalid witness program in %q: %v", addr, err)
	}
	if len(program) != 20 {
		return kerr.Validation("address %q is not P2WPKH (program length %d)", addr, len(program))
	}
	return nil
}

// Checksum returns the EIP-55 mixed-case form of an EVM address.
func Checksum(addr string) (string, error) {
	if !ethAddressRegex.MatchString(addr) {
		return "", kerr.Validation("invalid EVM address %q", addr)
	}
	lower := strings.ToLower(addr[2:])
	hash := keccak256([]byte(lower))

	out := make([]byte, 0, 42)
	out = append(out, '0', 'x')
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		// Each hex char is uppercased when the matching hash nibble is >= 8.
		nibble := hash[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if c >= 'a' && nibble&0x0f >= 8 {
			c -= 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out), nil
}

// HostForm returns the address as handed to the host.
//
// The host UI still identifies accounts by lower-cased address, so every
// address leaving the keyring goes through here. Stored accounts keep
// their original case.
func HostForm(addr string) string {
	return strings.ToLower(addr)
}

// Equal compares two addresses case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
