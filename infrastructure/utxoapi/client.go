// Package utxoapi looks up transaction outputs through a mempool.space
// compatible REST API.
package utxoapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/go-socks/socks"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/powlock/powlock/domain/utxo"
)

var (
	// ErrTransactionNotFound is returned when the API does not know the
	// requested transaction.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrOutputNotFound is returned when the transaction has no output at the
	// requested index.
	ErrOutputNotFound = errors.New("transaction output not found")
)

const (
	// DefaultBaseURL is the public mempool.space instance.
	DefaultBaseURL = "https://mempool.space"

	defaultTimeout   = 30 * time.Second
	defaultCacheSize = 64
	maxResponseSize  = 4 << 20
)

// Config configures a Client.
type Config struct {
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// Network is the path segment of the network, empty for mainnet.
	Network string

	// Proxy is the address of a SOCKS5 proxy the requests go through.
	Proxy     string
	ProxyUser string
	ProxyPass string

	Timeout time.Duration
}

// Client fetches transactions from the API. Fetched transactions are kept in
// an LRU cache keyed by txid.
type Client struct {
	baseURL    string
	network    string
	httpClient *http.Client
	cache      *lru.Cache
}

type apiOutput struct {
	ScriptPubKey string `json:"scriptpubkey"`
	Value        int64  `json:"value"`
}

type apiTransaction struct {
	TxID string      `json:"txid"`
	Vout []apiOutput `json:"vout"`
}

// NewClient returns a client configured by cfg.
func NewClient(cfg *Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxy := &socks.Proxy{
			Addr:     cfg.Proxy,
			Username: cfg.ProxyUser,
			Password: cfg.ProxyPass,
		}
		transport.Proxy = nil
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return proxy.DialTimeout(network, addr, timeout)
		}
	}

	cache, err := lru.New(defaultCacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		network:    strings.Trim(cfg.Network, "/"),
		httpClient: &http.Client{Transport: transport, Timeout: timeout},
		cache:      cache,
	}, nil
}

func (c *Client) transactionURL(txID *chainhash.Hash) string {
	if c.network == "" {
		return fmt.Sprintf("%s/api/tx/%s", c.baseURL, txID)
	}
	return fmt.Sprintf("%s/%s/api/tx/%s", c.baseURL, c.network, txID)
}

func (c *Client) transaction(ctx context.Context, txID *chainhash.Hash) (*apiTransaction, error) {
	if cached, ok := c.cache.Get(*txID); ok {
		log.Tracef("Transaction %s served from the cache", txID)
		return cached.(*apiTransaction), nil
	}

	url := c.transactionURL(txID)
	log.Debugf("Fetching %s", url)
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", url)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Wrapf(err, "reading the response of %s", url)
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrTransactionNotFound, "transaction %s: %s: %s",
			txID, response.Status, strings.TrimSpace(string(body)))
	}

	transaction := &apiTransaction{}
	if err := json.Unmarshal(body, transaction); err != nil {
		return nil, errors.Wrapf(err, "decoding transaction %s", txID)
	}
	c.cache.Add(*txID, transaction)
	return transaction, nil
}

// WitnessUTXO returns the output vout of the transaction txID.
func (c *Client) WitnessUTXO(ctx context.Context, txID *chainhash.Hash, vout uint32) (*utxo.UTXO, error) {
	transaction, err := c.transaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if int(vout) >= len(transaction.Vout) {
		return nil, errors.Wrapf(ErrOutputNotFound, "transaction %s doesn't have vout %d", txID, vout)
	}
	output := transaction.Vout[vout]
	script, err := hex.DecodeString(output.ScriptPubKey)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding the script of %s:%d", txID, vout)
	}
	return &utxo.UTXO{
		TxID:   *txID,
		Vout:   vout,
		Script: script,
		Value:  output.Value,
	}, nil
}

// ParseOutpoint parses "txid:vout".
func ParseOutpoint(outpoint string) (*chainhash.Hash, uint32, error) {
	separator := strings.LastIndex(outpoint, ":")
	if separator < 0 {
		return nil, 0, errors.Errorf("outpoint %q is not of the form txid:vout", outpoint)
	}
	txID, err := chainhash.NewHashFromStr(outpoint[:separator])
	if err != nil {
		return nil, 0, errors.Wrapf(err, "parsing the txid of %q", outpoint)
	}
	if len(outpoint[:separator]) != 2*chainhash.HashSize {
		return nil, 0, errors.Errorf("txid of %q is not %d hex characters", outpoint, 2*chainhash.HashSize)
	}
	vout, err := strconv.ParseUint(outpoint[separator+1:], 10, 32)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "parsing the vout of %q", outpoint)
	}
	return txID, uint32(vout), nil
}
