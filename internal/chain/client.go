package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/puzpuzpuz/xsync/v4"

	"fillScope/internal/failure"
	"fillScope/internal/model"
)

// Client wraps go-ethereum RPC. Every transport error it returns is marked
// retryable, except eth_call errors which callers classify themselves.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
	chainID   uint64

	tsCache *xsync.Map[uint64, uint64]
}

// NewClient dials rpcURL and resolves the chain id.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
		tsCache:   xsync.NewMap[uint64, uint64](),
	}

	id, err := c.ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !id.IsUint64() {
		rpcClient.Close()
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", id)
	}
	c.chainID = id.Uint64()

	return c, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain id resolved at dial time.
func (c *Client) ChainID() uint64 {
	return c.chainID
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	n, err := c.ethClient.BlockNumber(ctx)
	return n, failure.Retryable(err)
}

// BlockTimestamp returns the block timestamp, using an in-memory cache.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := c.tsCache.Load(number); ok {
		return ts, nil
	}

	header, err := c.ethClient.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, failure.Retryable(err)
	}

	c.tsCache.Store(number, header.Time)
	return header.Time, nil
}

// FilterLogs returns logs in the given range for addresses and topic0 filters.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	logs, err := c.ethClient.FilterLogs(ctx, query)
	return logs, failure.Retryable(err)
}

// TransactionLogs returns every log of a mined transaction in log-index order.
func (c *Client) TransactionLogs(ctx context.Context, txHash common.Hash) ([]model.RawLog, error) {
	receipt, err := c.ethClient.TransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, failure.Retryable(fmt.Errorf("receipt %s: %w", txHash.Hex(), err))
	}

	logs := make([]model.RawLog, 0, len(receipt.Logs))
	for _, log := range receipt.Logs {
		if log == nil {
			continue
		}
		logs = append(logs, FromTypesLog(c.chainID, *log, 0))
	}
	return logs, nil
}

// rpcTransaction is the part of eth_getTransactionByHash read by the
// handlers. The node reports from directly, which also covers transaction
// types the local signer does not know.
type rpcTransaction struct {
	From *common.Address `json:"from"`
	To   *common.Address `json:"to"`
}

// Transaction returns the sender and recipient of a transaction. A
// transaction the node does not know yet is retryable; one without a sender
// is failure.ErrNotFound.
func (c *Client) Transaction(ctx context.Context, txHash common.Hash) (model.TxInfo, error) {
	var tx *rpcTransaction
	if err := c.rpcClient.CallContext(ctx, &tx, "eth_getTransactionByHash", txHash); err != nil {
		return model.TxInfo{}, failure.Retryable(fmt.Errorf("transaction %s: %w", txHash.Hex(), err))
	}
	if tx == nil {
		return model.TxInfo{}, failure.Retryable(fmt.Errorf("transaction %s: %w", txHash.Hex(), ethereum.NotFound))
	}
	if tx.From == nil {
		return model.TxInfo{}, fmt.Errorf("transaction %s has no sender: %w", txHash.Hex(), failure.ErrNotFound)
	}

	info := model.TxInfo{Hash: txHash, From: *tx.From}
	if tx.To != nil {
		info.To = *tx.To
	}
	return info, nil
}

// CallContract performs an eth_call against the latest block when blockNumber is nil.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// FromTypesLog converts a go-ethereum log into the engine's raw log.
func FromTypesLog(chainID uint64, log types.Log, timestamp uint64) model.RawLog {
	topics := make([]common.Hash, len(log.Topics))
	copy(topics, log.Topics)
	data := make([]byte, len(log.Data))
	copy(data, log.Data)

	return model.RawLog{
		ChainID:     chainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		TxIndex:     uint64(log.TxIndex),
		LogIndex:    uint64(log.Index),
		Address:     log.Address,
		Topics:      topics,
		Data:        data,
		Removed:     log.Removed,
		Timestamp:   timestamp,
	}
}
