// Package caip formats and parses CAIP-2 chain identifiers
// ("<namespace>:<reference>").
package caip

import (
	"regexp"
	"strings"

	"github.com/olehkaliuzhnyi/snap-keyring/internal/kerr"
)

// Supported namespaces.
const (
	NamespaceEIP155 = "eip155"
	NamespaceBIP122 = "bip122"
)

var (
	namespaceRegex = regexp.MustCompile(`^[-a-z0-9]{3,8}$`)
	referenceRegex = regexp.MustCompile(`^[-_a-zA-Z0-9]{1,32}$`)
)

// ChainID validates namespace and reference and joins them into a chain id.
func ChainID(namespace, reference string) (string, error) {
	if !namespaceRegex.MatchString(namespace) {
		return "", kerr.Validation(`invalid "namespace", must match: %s`, namespaceRegex)
	}
	if !referenceRegex.MatchString(reference) {
		return "", kerr.Validation(`invalid "reference", must match: %s`, referenceRegex)
	}
	return namespace + ":" + reference, nil
}

// Parse splits a chain id into its validated namespace and reference.
func Parse(chainID string) (namespace, reference string, err error) {
	namespace, reference, ok := strings.Cut(chainID, ":")
	if !ok {
		return "", "", kerr.Validation("invalid chain id %q: missing ':'", chainID)
	}
	if _, err := ChainID(namespace, reference); err != nil {
		return "", "", err
	}
	return namespace, reference, nil
}
