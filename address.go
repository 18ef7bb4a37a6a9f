// Copyright 2019 cruzbit developers
// Use of this source code is governed by a MIT-style license that can be found in the LICENSE file.

package bytecore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/sha3"
)

// addresses, send proofs and view-only wallets are encoded as
// base58(varint(prefix) | body | checksum), with base58 applied to 8 byte blocks
// so every full block is exactly 11 characters

const base58FullBlockSize = 8

const base58FullEncodedBlockSize = 11

const addressChecksumSize = 4

// encoded length by block length
var base58EncodedBlockSizes = [base58FullBlockSize + 1]int{0, 2, 3, 5, 6, 7, 9, 10, 11}

// AddressPrefixFor returns the address prefix used by the era.
func (p *ParameterSet) AddressPrefixFor(era Era) uint64 {
	if era.IsLegacy() {
		return p.AddressPrefix
	}
	return p.AddressPrefixAmethyst
}

// EncodeAddress encodes body under the given prefix with a checksum.
func EncodeAddress(prefix uint64, body []byte) string {
	var varint [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(varint[:], prefix)

	data := make([]byte, 0, n+len(body)+addressChecksumSize)
	data = append(data, varint[:n]...)
	data = append(data, body...)
	data = append(data, addressChecksum(data)...)
	return encodeBase58Blocks(data)
}

// DecodeAddress decodes an encoded address and verifies its checksum.
func DecodeAddress(s string) (prefix uint64, body []byte, err error) {
	data, err := decodeBase58Blocks(s)
	if err != nil {
		return 0, nil, err
	}
	if len(data) <= addressChecksumSize {
		return 0, nil, fmt.Errorf("Address %q is too short", s)
	}
	payload, checksum := data[:len(data)-addressChecksumSize], data[len(data)-addressChecksumSize:]
	if !bytes.Equal(addressChecksum(payload), checksum) {
		return 0, nil, fmt.Errorf("Address %q has an invalid checksum", s)
	}
	prefix, n := binary.Uvarint(payload)
	if n <= 0 {
		return 0, nil, fmt.Errorf("Address %q has an invalid prefix", s)
	}
	return prefix, payload[n:], nil
}

// DecodeAddressWithPrefix decodes s and fails unless it carries the expected prefix.
func DecodeAddressWithPrefix(s string, expected uint64) ([]byte, error) {
	prefix, body, err := DecodeAddress(s)
	if err != nil {
		return nil, err
	}
	if prefix != expected {
		return nil, fmt.Errorf("Address %q has prefix %d, expected %d", s, prefix, expected)
	}
	return body, nil
}

// first 4 bytes of keccak-256
func addressChecksum(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)[:addressChecksumSize]
}

func encodeBase58Blocks(data []byte) string {
	var sb strings.Builder
	for len(data) > 0 {
		n := base58FullBlockSize
		if len(data) < n {
			n = len(data)
		}
		sb.WriteString(encodeBase58Block(data[:n]))
		data = data[n:]
	}
	return sb.String()
}

// A block is a big-endian number written with a fixed number of digits.
// base58.Encode writes leading zero bytes as '1' (the zero digit) so the leading
// '1's are dropped and the number is padded back to the block's width.
func encodeBase58Block(block []byte) string {
	digits := strings.TrimLeft(base58.Encode(block), "1")
	width := base58EncodedBlockSizes[len(block)]
	return strings.Repeat("1", width-len(digits)) + digits
}

func decodeBase58Blocks(s string) ([]byte, error) {
	fullBlocks, lastSize := len(s)/base58FullEncodedBlockSize, len(s)%base58FullEncodedBlockSize
	lastDecodedSize := -1
	for size, encodedSize := range base58EncodedBlockSizes {
		if encodedSize == lastSize {
			lastDecodedSize = size
			break
		}
	}
	if lastDecodedSize < 0 {
		return nil, fmt.Errorf("Invalid base58 length %d", len(s))
	}

	data := make([]byte, 0, fullBlocks*base58FullBlockSize+lastDecodedSize)
	for i := 0; i < fullBlocks; i++ {
		chunk := s[i*base58FullEncodedBlockSize : (i+1)*base58FullEncodedBlockSize]
		block, err := decodeBase58Block(chunk, base58FullBlockSize)
		if err != nil {
			return nil, err
		}
		data = append(data, block...)
	}
	if lastSize > 0 {
		block, err := decodeBase58Block(s[fullBlocks*base58FullEncodedBlockSize:], lastDecodedSize)
		if err != nil {
			return nil, err
		}
		data = append(data, block...)
	}
	return data, nil
}

func decodeBase58Block(chunk string, size int) ([]byte, error) {
	raw := base58.Decode(chunk)
	if len(raw) == 0 {
		return nil, fmt.Errorf("Invalid base58 block %q", chunk)
	}
	number := bytes.TrimLeft(raw, "\x00")
	if len(number) > size {
		return nil, fmt.Errorf("Base58 block %q overflows %d bytes", chunk, size)
	}
	block := make([]byte, size)
	copy(block[size-len(number):], number)
	return block, nil
}
