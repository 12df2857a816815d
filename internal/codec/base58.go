package codec

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var ErrInvalidBase58 = errors.New("invalid base58")

var base58Index = func() [128]int8 {
	var idx [128]int8
	for i := range idx {
		idx[i] = -1
	}
	for i := 0; i < len(base58Alphabet); i++ {
		idx[base58Alphabet[i]] = int8(i)
	}
	return idx
}()

// EncodeBase58 converts raw bytes to base58 by long division over a byte
// buffer. Each leading zero byte becomes a leading '1'.
func EncodeBase58(input []byte) string {
	zeros := 0
	for zeros < len(input) && input[zeros] == 0 {
		zeros++
	}

	// log(256)/log(58) ~= 1.37
	size := (len(input)-zeros)*138/100 + 1
	buf := make([]byte, size)
	length := 0

	for _, b := range input[zeros:] {
		carry := int(b)
		i := 0
		for j := size - 1; (carry != 0 || i < length) && j >= 0; j-- {
			carry += 256 * int(buf[j])
			buf[j] = byte(carry % 58)
			carry /= 58
			i++
		}
		length = i
	}

	it := size - length
	for it < size && buf[it] == 0 {
		it++
	}

	out := make([]byte, zeros+size-it)
	for i := 0; i < zeros; i++ {
		out[i] = '1'
	}
	for i := zeros; it < size; i, it = i+1, it+1 {
		out[i] = base58Alphabet[buf[it]]
	}
	return string(out)
}

// DecodeBase58 is the exact inverse of EncodeBase58.
func DecodeBase58(s string) ([]byte, error) {
	zeros := 0
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}

	// log(58)/log(256) ~= 0.733
	size := (len(s)-zeros)*733/1000 + 1
	buf := make([]byte, size)
	length := 0

	for pos := zeros; pos < len(s); pos++ {
		c := s[pos]
		if c >= 128 || base58Index[c] < 0 {
			return nil, fmt.Errorf("%w: character %q at %d", ErrInvalidBase58, c, pos)
		}
		carry := int(base58Index[c])
		i := 0
		for j := size - 1; (carry != 0 || i < length) && j >= 0; j-- {
			carry += 58 * int(buf[j])
			buf[j] = byte(carry % 256)
			carry /= 256
			i++
		}
		length = i
	}

	it := size - length
	for it < size && buf[it] == 0 {
		it++
	}

	out := make([]byte, zeros+size-it)
	copy(out[zeros:], buf[it:])
	return out, nil
}

// DecodeAddress decodes a base58 string that must hold exactly 32 bytes.
func DecodeAddress(s string) (solana.PublicKey, error) {
	raw, err := DecodeBase58(s)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(raw) != solana.PublicKeyLength {
		return solana.PublicKey{}, fmt.Errorf("%w: address must be %d bytes, got %d", ErrInvalidBase58, solana.PublicKeyLength, len(raw))
	}
	return solana.PublicKeyFromBytes(raw), nil
}
