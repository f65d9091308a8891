// Package codec provides a lexicographically-sortable Base85 byte
// encoding, used to turn an arbitrary serialized atom into a string key
// whose ordinary string (lexicographic) order matches the byte order of
// the input. This gives the minimizer's set-equality check a genuine
// total order to sort by, rather than a hash bucket order.
package codec

// L85Alphabet lists 85 bytes in ascending order, so that encoding a
// byte string digit-by-digit preserves lexicographic order.
const L85Alphabet = "!$%&()+,-./" +
	"0123456789:;<=>@" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ[]_`" +
	"abcdefghijklmnopqrstuvwxyz{}"

// EncodeL85 encodes bytes to their order-preserving L85 string form.
func EncodeL85(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	result := make([]byte, 0, len(src)*5/4+5)

	for i := 0; i+4 <= len(src); i += 4 {
		v := uint32(src[i])<<24 | uint32(src[i+1])<<16 |
			uint32(src[i+2])<<8 | uint32(src[i+3])

		chars := [5]byte{}
		for j := 4; j >= 0; j-- {
			chars[j] = L85Alphabet[v%85]
			v /= 85
		}
		result = append(result, chars[:]...)
	}

	remainder := len(src) % 4
	if remainder > 0 {
		padded := [4]byte{}
		copy(padded[:], src[len(src)-remainder:])

		v := uint32(padded[0])<<24 | uint32(padded[1])<<16 |
			uint32(padded[2])<<8 | uint32(padded[3])

		chars := [5]byte{}
		for j := 4; j >= 0; j-- {
			chars[j] = L85Alphabet[v%85]
			v /= 85
		}
		result = append(result, chars[:remainder+1]...)
	}

	return string(result)
}
