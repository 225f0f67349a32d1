package radixtrie

import "golang.org/x/text/unicode/norm"

// KeyFromString normalizes s to Unicode NFC and returns its UTF-8 bytes
// as a trie key, the same normalize-before-hash-or-compare discipline
// the teacher's multimap.Key.FromString applies so that two strings
// which render identically but differ in combining-character order
// compare equal as trie keys.
func KeyFromString(s string) []byte {
	return norm.NFC.Bytes([]byte(s))
}
