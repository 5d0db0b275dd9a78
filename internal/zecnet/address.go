package zecnet

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// AddressKind distinguishes the two transparent address encodings this
// system understands.
type AddressKind int

const (
	KindP2PKH AddressKind = iota
	KindP2SH
)

// EncodeAddress base58check-encodes a 20-byte hash under the given
// network's prefix for the given address kind: prefix || hash || checksum,
// where checksum is the first 4 bytes of SHA256(SHA256(prefix || hash)).
func EncodeAddress(hash160 []byte, network Network, kind AddressKind) (string, error) {
	if len(hash160) != 20 {
		return "", fmt.Errorf("zecnet: hash must be 20 bytes, got %d", len(hash160))
	}
	params := Get(network)
	prefix := params.PubKeyHashAddrID
	if kind == KindP2SH {
		prefix = params.ScriptHashAddrID
	}

	payload := make([]byte, 0, 2+20+4)
	payload = append(payload, prefix[0], prefix[1])
	payload = append(payload, hash160...)
	checksum := doubleSHA256(payload)[:4]
	payload = append(payload, checksum...)

	return base58.Encode(payload), nil
}

// DecodeAddress base58check-decodes an address, verifies its checksum, and
// reports which network/kind the prefix identifies along with the raw
// 20-byte hash.
func DecodeAddress(address string) (hash160 []byte, network Network, kind AddressKind, err error) {
	payload := base58.Decode(address)
	if len(payload) < 26 {
		return nil, "", 0, fmt.Errorf("zecnet: address too short: %d bytes", len(payload))
	}

	body := payload[:len(payload)-4]
	checksum := payload[len(payload)-4:]
	want := doubleSHA256(body)[:4]
	if !bytes.Equal(checksum, want) {
		return nil, "", 0, fmt.Errorf("zecnet: bad checksum for address %q", address)
	}

	if len(body) != 22 {
		return nil, "", 0, fmt.Errorf("zecnet: unexpected payload length %d", len(body))
	}
	prefix := [2]byte{body[0], body[1]}
	hash := body[2:]

	for _, net := range []Network{Mainnet, Testnet} {
		params := Get(net)
		if prefix == params.PubKeyHashAddrID {
			return hash, net, KindP2PKH, nil
		}
		if prefix == params.ScriptHashAddrID {
			return hash, net, KindP2SH, nil
		}
	}
	return nil, "", 0, fmt.Errorf("zecnet: unrecognized address prefix %x", prefix)
}

func doubleSHA256(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:]
}
</content>
</invoke>
