package zecnet

import "testing"

func TestMainnetPrefixes(t *testing.T) {
	params := Get(Mainnet)
	if params.PubKeyHashAddrID != [2]byte{0x1C, 0xB8} {
		t.Errorf("mainnet P2PKH prefix = %x, want 1cb8", params.PubKeyHashAddrID)
	}
	if params.ScriptHashAddrID != [2]byte{0x1C, 0xBD} {
		t.Errorf("mainnet P2SH prefix = %x, want 1cbd", params.ScriptHashAddrID)
	}
}

func TestTestnetPrefixes(t *testing.T) {
	params := Get(Testnet)
	if params.PubKeyHashAddrID != [2]byte{0x1D, 0x25} {
		t.Errorf("testnet P2PKH prefix = %x, want 1d25", params.PubKeyHashAddrID)
	}
	if params.ScriptHashAddrID != [2]byte{0x1C, 0xBA} {
		t.Errorf("testnet P2SH prefix = %x, want 1cba", params.ScriptHashAddrID)
	}
}

func TestParseNetwork(t *testing.T) {
	if n, ok := ParseNetwork("mainnet"); !ok || n != Mainnet {
		t.Errorf("ParseNetwork(mainnet) = %v, %v", n, ok)
	}
	if n, ok := ParseNetwork("testnet"); !ok || n != Testnet {
		t.Errorf("ParseNetwork(testnet) = %v, %v", n, ok)
	}
	if _, ok := ParseNetwork("regtest"); ok {
		t.Error("ParseNetwork(regtest) should fail")
	}
}

func TestAddressRoundTrip(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}

	for _, tc := range []struct {
		name    string
		network Network
		kind    AddressKind
	}{
		{"mainnet p2pkh", Mainnet, KindP2PKH},
		{"mainnet p2sh", Mainnet, KindP2SH},
		{"testnet p2pkh", Testnet, KindP2PKH},
		{"testnet p2sh", Testnet, KindP2SH},
	} {
		t.Run(tc.name, func(t *testing.T) {
			addr, err := EncodeAddress(hash, tc.network, tc.kind)
			if err != nil {
				t.Fatalf("EncodeAddress: %v", err)
			}
			gotHash, gotNetwork, gotKind, err := DecodeAddress(addr)
			if err != nil {
				t.Fatalf("DecodeAddress(%q): %v", addr, err)
			}
			if string(gotHash) != string(hash) {
				t.Errorf("round-tripped hash mismatch")
			}
			if gotNetwork != tc.network || gotKind != tc.kind {
				t.Errorf("got network=%v kind=%v, want %v %v", gotNetwork, gotKind, tc.network, tc.kind)
			}
		})
	}
}

func TestDecodeAddressBadChecksum(t *testing.T) {
	addr, _ := EncodeAddress(make([]byte, 20), Testnet, KindP2SH)
	corrupted := addr[:len(addr)-1] + "9"
	if _, _, _, err := DecodeAddress(corrupted); err == nil {
		t.Error("expected checksum error")
	}
}
</content>
</invoke>
