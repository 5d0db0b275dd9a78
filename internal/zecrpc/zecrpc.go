// Package zecrpc is the node's only window onto the outside world: a
// JSON-RPC 2.0 client for broadcast/chain-height queries and a
// block-explorer HTTP client for UTXO/balance lookups.
package zecrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Error kinds surfaced by this package.
var (
	ErrTransport = fmt.Errorf("zecrpc: transport error")
)

// RPCError is a logical error returned by the node (code + message),
// as opposed to a transport failure.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("zecrpc: rpc error %d: %s", e.Code, e.Message)
}

// Client talks JSON-RPC 2.0 to a Zcash node.
type Client struct {
	url        string
	user       string
	pass       string
	httpClient *http.Client
	requestID  atomic.Uint64
}

// NewClient constructs a node RPC client. user/pass may be empty to
// disable HTTP basic auth.
func NewClient(url, user, pass string) *Client {
	return &Client{
		url:  url,
		user: user,
		pass: pass,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      fmt.Sprintf("%d", c.requestID.Add(1)),
		Method:  method,
		Params:  params,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", ErrTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		httpReq.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrTransport, err)
	}

	if rpcResp.Error != nil {
		return nil, &RPCError{Code: rpcResp.Error.Code, Message: rpcResp.Error.Message}
	}

	return rpcResp.Result, nil
}

// SendRawTransaction broadcasts a raw transaction hex and returns its
// txid.
func (c *Client) SendRawTransaction(ctx context.Context, rawTxHex string) (string, error) {
	result, err := c.call(ctx, "sendrawtransaction", []interface{}{rawTxHex})
	if err != nil {
		return "", err
	}
	var txid string
	if err := json.Unmarshal(result, &txid); err != nil {
		return "", fmt.Errorf("zecrpc: parse sendrawtransaction result: %w", err)
	}
	return txid, nil
}

// GetBlockCount returns the node's current chain height.
func (c *Client) GetBlockCount(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "getblockcount", []interface{}{})
	if err != nil {
		return 0, err
	}
	var height uint64
	if err := json.Unmarshal(result, &height); err != nil {
		return 0, fmt.Errorf("zecrpc: parse getblockcount result: %w", err)
	}
	return height, nil
}

// RawTransactionInfo is the subset of `getrawtransaction(txid, true)`
// output this client cares about.
type RawTransactionInfo struct {
	TxID          string `json:"txid"`
	Confirmations int64  `json:"confirmations"`
	BlockHash     string `json:"blockhash,omitempty"`
}

// GetRawTransaction fetches verbose transaction info, used primarily
// to poll for confirmations.
func (c *Client) GetRawTransaction(ctx context.Context, txid string) (*RawTransactionInfo, error) {
	result, err := c.call(ctx, "getrawtransaction", []interface{}{txid, true})
	if err != nil {
		return nil, err
	}
	var info RawTransactionInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, fmt.Errorf("zecrpc: parse getrawtransaction result: %w", err)
	}
	return &info, nil
}

// WaitForConfirmations polls GetRawTransaction every 30 seconds, up to
// maxAttempts times, until the transaction has at least minConfirmations
// confirmations.
func (c *Client) WaitForConfirmations(ctx context.Context, txid string, minConfirmations int64, maxAttempts int) (*RawTransactionInfo, error) {
	var last *RawTransactionInfo
	for attempt := 0; attempt < maxAttempts; attempt++ {
		info, err := c.GetRawTransaction(ctx, txid)
		if err == nil {
			last = info
			if info.Confirmations >= minConfirmations {
				return info, nil
			}
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(30 * time.Second):
		}
	}
	return nil, fmt.Errorf("zecrpc: confirmation timeout waiting for %s", txid)
}
</content>
</invoke>
