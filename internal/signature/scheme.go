package signature

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"sort"
)

// Scheme names. The gateway documents MD5 over the concatenated values,
// lowercase hex encoded.
const (
	SchemeMD5Hex           = "md5-hex"
	SchemeSHA256Hex        = "sha256-hex"
	SchemeHMACSHA256Base64 = "hmac-sha256-base64"
)

// DefaultScheme is what the gateway expects unless configured otherwise.
const DefaultScheme = SchemeMD5Hex

// Scheme fixes everything about a signature that is part of the wire
// contract: where the secret goes, the delimiter, the digest and its encoding.
type Scheme struct {
	Name      string
	Delimiter string
	// SecretPosition is the index at which the secret is spliced into the
	// ordered values. Ignored when Keyed is set.
	SecretPosition int
	// Keyed schemes use the secret as MAC key instead of hashing it inline.
	Keyed  bool
	digest func(message []byte, secret []byte) []byte
	encode func([]byte) string
}

var schemes = map[string]Scheme{
	SchemeMD5Hex: {
		Name:           SchemeMD5Hex,
		SecretPosition: 4,
		digest: func(message, _ []byte) []byte {
			sum := md5.Sum(message)
			return sum[:]
		},
		encode: hex.EncodeToString,
	},
	SchemeSHA256Hex: {
		Name:           SchemeSHA256Hex,
		SecretPosition: 4,
		digest: func(message, _ []byte) []byte {
			sum := sha256.Sum256(message)
			return sum[:]
		},
		encode: hex.EncodeToString,
	},
	SchemeHMACSHA256Base64: {
		Name:  SchemeHMACSHA256Base64,
		Keyed: true,
		digest: func(message, secret []byte) []byte {
			mac := hmac.New(sha256.New, secret)
			mac.Write(message)
			return mac.Sum(nil)
		},
		encode: base64.StdEncoding.EncodeToString,
	},
}

// Lookup returns the scheme registered under name.
func Lookup(name string) (Scheme, bool) {
	s, ok := schemes[name]
	return s, ok
}

// Schemes lists the registered scheme names in lexical order.
func Schemes() []string {
	names := make([]string, 0, len(schemes))
	for name := range schemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
