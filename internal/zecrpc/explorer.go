package zecrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ExplorerUTXO is one entry from GET /address/{addr}/utxo.
type ExplorerUTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Value         uint64 `json:"value"`
	ScriptPubKey  string `json:"script_pubkey,omitempty"`
	Confirmations int64  `json:"confirmations,omitempty"`
}

// ExplorerBalance is the response of GET /address/{addr}.
type ExplorerBalance struct {
	Balance uint64 `json:"balance"`
}

// ExplorerClient queries a Zcash block-explorer's read-only HTTP API.
type ExplorerClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewExplorerClient constructs a client against the given explorer base
// URL (e.g. "https://api.zcha.in" or "https://explorer.testnet.z.cash/api").
func NewExplorerClient(baseURL string) *ExplorerClient {
	return &ExplorerClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *ExplorerClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zecrpc: explorer http error: status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrTransport, err)
	}
	return nil
}

// GetUTXOs fetches the UTXO set for an address.
func (c *ExplorerClient) GetUTXOs(ctx context.Context, address string) ([]ExplorerUTXO, error) {
	var utxos []ExplorerUTXO
	if err := c.getJSON(ctx, "/address/"+address+"/utxo", &utxos); err != nil {
		return nil, err
	}
	return utxos, nil
}

// GetBalance fetches an address's confirmed balance, in zatoshis.
func (c *ExplorerClient) GetBalance(ctx context.Context, address string) (uint64, error) {
	var balance ExplorerBalance
	if err := c.getJSON(ctx, "/address/"+address, &balance); err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

// Default explorer endpoints, used when config doesn't override them.
const (
	DefaultMainnetExplorer = "https://api.zcha.in"
	DefaultTestnetExplorer = "https://explorer.testnet.z.cash/api"
)
</content>
</invoke>
