// Package evm implements the TokenVenue port with a plain JSON-RPC balance
// probe. Swap construction and signing live outside this repo.
package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"time"
)

// Wallet checks the native-token balance of one address over JSON-RPC.
type Wallet struct {
	http    *http.Client
	rpcURL  string
	address string
}

// NewWallet creates a Wallet for the given RPC endpoint and address.
func NewWallet(rpcURL, address string) *Wallet {
	return &Wallet{
		http:    &http.Client{Timeout: 10 * time.Second},
		rpcURL:  rpcURL,
		address: address,
	}
}

// NativeBalance implements ports.TokenVenue. Returns the balance in whole
// native-token units (ether scale).
func (w *Wallet) NativeBalance(ctx context.Context) (float64, error) {
	if w.address == "" {
		return 0, fmt.Errorf("evm.NativeBalance: no wallet address configured")
	}

	payload := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_getBalance",
		"params":  []string{w.address, "latest"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("evm.NativeBalance: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.rpcURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("evm.NativeBalance: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("evm.NativeBalance: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return 0, fmt.Errorf("evm.NativeBalance: decode: %w", err)
	}
	if rpcResp.Error != nil {
		return 0, fmt.Errorf("evm.NativeBalance: rpc error: %s", rpcResp.Error.Message)
	}

	wei, ok := new(big.Int).SetString(rpcResp.Result, 0)
	if !ok {
		return 0, fmt.Errorf("evm.NativeBalance: bad balance %q", rpcResp.Result)
	}

	f, _ := new(big.Float).SetInt(wei).Float64()
	return f / math.Pow10(18), nil
}
