package utils

import (
	"strings"

	"golang.org/x/net/idna"
)

// LocalPart returns the part of the input before the first "@", lowercased.
// Anything after the "@" is discarded; the owning domain supplies the suffix.
func LocalPart(input string) string {
	input = strings.TrimSpace(strings.ToLower(input))
	if idx := strings.Index(input, "@"); idx >= 0 {
		input = input[:idx]
	}
	return input
}

// NormalizeDomainName lowercases a domain name, strips a trailing dot and
// converts unicode labels to their punycode form.
func NormalizeDomainName(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(name)), ".")
	return idna.Lookup.ToASCII(name)
}
