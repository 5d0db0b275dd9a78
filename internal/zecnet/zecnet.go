// Package zecnet defines the address-version parameters for the Zcash
// transparent networks this system targets. All values are hardcoded here
// - no external configuration needed.
package zecnet

// Network identifies a Zcash transparent-address network.
type Network string

const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// Params carries the 2-byte address version prefixes for a network. Zcash
// t-addresses use two-byte prefixes, unlike Bitcoin's single-byte scheme.
type Params struct {
	Symbol string

	// PubKeyHashAddrID is the 2-byte prefix for P2PKH (t1/tm) addresses.
	PubKeyHashAddrID [2]byte
	// ScriptHashAddrID is the 2-byte prefix for P2SH (t3/t2) addresses.
	ScriptHashAddrID [2]byte
}

var registry = map[Network]*Params{
	Mainnet: {
		Symbol:           "ZEC",
		PubKeyHashAddrID: [2]byte{0x1C, 0xB8}, // t1...
		ScriptHashAddrID: [2]byte{0x1C, 0xBD}, // t3...
	},
	Testnet: {
		Symbol:           "TAZ",
		PubKeyHashAddrID: [2]byte{0x1D, 0x25}, // tm...
		ScriptHashAddrID: [2]byte{0x1C, 0xBA}, // t2...
	},
}

// Get returns the params for a network. Panics on an unregistered network,
// since only Mainnet and Testnet are ever constructed in this codebase.
func Get(network Network) *Params {
	params, ok := registry[network]
	if !ok {
		panic("zecnet: unknown network " + string(network))
	}
	return params
}

// ParseNetwork maps a config/CLI string to a Network.
func ParseNetwork(s string) (Network, bool) {
	switch s {
	case "mainnet":
		return Mainnet, true
	case "testnet":
		return Testnet, true
	default:
		return "", false
	}
}
</content>
</invoke>
