package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LogReader 区块和日志读取
type LogReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
}

// Block 区块操作工具类
type Block struct {
	reader LogReader
}

// NewBlock 创建区块工具类实例
func NewBlock(reader LogReader) *Block {
	return &Block{reader: reader}
}

// GetBatchBlockLogs 获取 [fromBlock, toBlock] 内多个合约的日志
func (b *Block) GetBatchBlockLogs(ctx context.Context, contractAddresses []common.Address, fromBlock, toBlock uint64) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: contractAddresses,
	}

	return b.reader.FilterLogs(ctx, query)
}

// GetCurrentBlockNumber 获取当前最新区块号
func (b *Block) GetCurrentBlockNumber(ctx context.Context) (uint64, error) {
	return b.reader.BlockNumber(ctx)
}
