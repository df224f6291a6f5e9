package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blues/propdao/internal/chain"
	"github.com/blues/propdao/internal/logger"
	"github.com/blues/propdao/internal/logic"
	"github.com/blues/propdao/internal/model"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// defaultBatchSize 每批扫描的区块数
const defaultBatchSize = 500

// Source 被监控的合约及区块读取，chain.Manager 满足该接口
type Source interface {
	Contracts() []*chain.Contract
	Block() *chain.Block
}

// EventMonitor 区块链事件索引器，只写 chain_event 表
type EventMonitor struct {
	source    Source
	events    *logic.ChainEventLogic
	batchSize uint64

	mu        sync.Mutex
	nextBlock uint64 // 下一次扫描的起始区块，0 表示从数据库恢复
}

// NewEventMonitor 创建事件索引器
func NewEventMonitor(source Source, db *gorm.DB, batchSize int64) *EventMonitor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &EventMonitor{
		source:    source,
		events:    logic.NewChainEventLogic(db),
		batchSize: uint64(batchSize),
	}
}

// Scan 从上次位置扫描到最新区块，返回新保存的事件数
func (m *EventMonitor) Scan(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	contracts := m.source.Contracts()
	if len(contracts) == 0 {
		logger.Debug("No contracts to index")
		return 0, nil
	}

	block := m.source.Block()
	currentBlock, err := block.GetCurrentBlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current block number: %w", err)
	}

	fromBlock := m.nextBlock
	if fromBlock == 0 {
		fromBlock, err = m.startBlock(ctx, contracts)
		if err != nil {
			return 0, err
		}
	}
	if fromBlock > currentBlock {
		logger.Debug("No new blocks: next=%d current=%d", fromBlock, currentBlock)
		return 0, nil
	}

	total := 0
	for batchFrom := fromBlock; batchFrom <= currentBlock; batchFrom += m.batchSize {
		batchTo := batchFrom + m.batchSize - 1
		if batchTo > currentBlock {
			batchTo = currentBlock
		}

		saved, err := m.processBatchBlocks(ctx, block, contracts, batchFrom, batchTo)
		total += saved
		if err != nil {
			return total, fmt.Errorf("error processing blocks %d-%d: %w", batchFrom, batchTo, err)
		}

		// 整批成功后才推进游标
		m.nextBlock = batchTo + 1
	}

	logger.Info("Indexed blocks %d-%d, saved %d events", fromBlock, currentBlock, total)
	return total, nil
}

// NextBlock 下一次扫描的起始区块
func (m *EventMonitor) NextBlock() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBlock
}

// startBlock 取合约部署区块和已索引区块中较大者的最小值
//
// 已索引的最后一个区块会被重新扫描，重复事件由唯一索引忽略。
func (m *EventMonitor) startBlock(ctx context.Context, contracts []*chain.Contract) (uint64, error) {
	var start uint64
	for i, contract := range contracts {
		from := uint64(contract.BlockNum())

		last, err := m.events.LastIndexedBlock(ctx, contract.Address().Hex())
		if err != nil {
			return 0, err
		}
		if last > from {
			from = last
		}

		if i == 0 || from < start {
			start = from
		}
	}

	logger.Info("Indexer start block: %d", start)
	return start, nil
}

// processBatchBlocks 获取一批区块的日志，按合约并发解码保存
func (m *EventMonitor) processBatchBlocks(ctx context.Context, block *chain.Block, contracts []*chain.Contract, fromBlock, toBlock uint64) (int, error) {
	// 跳过尚未部署的合约
	var addresses []common.Address
	contractMap := make(map[common.Address]*chain.Contract)
	for _, contract := range contracts {
		if int64(toBlock) < contract.BlockNum() {
			continue
		}
		addresses = append(addresses, contract.Address())
		contractMap[contract.Address()] = contract
	}
	if len(addresses) == 0 {
		return 0, nil
	}

	logs, err := block.GetBatchBlockLogs(ctx, addresses, fromBlock, toBlock)
	if err != nil {
		return 0, fmt.Errorf("error getting logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	logsByContract := groupLogsByContract(logs)

	// 创建临时协程池，大小等于分组数量
	pool, err := ants.NewPool(len(logsByContract))
	if err != nil {
		return 0, fmt.Errorf("failed to create pool for %d groups: %w", len(logsByContract), err)
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		saved    atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	for address, contractLogs := range logsByContract {
		contract := contractMap[address]
		if contract == nil {
			logger.Warn("Unknown contract address: %s", address.Hex())
			continue
		}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			n, err := m.processContractLogs(ctx, contract, contractLogs)
			saved.Add(int64(n))
			if err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		})
		if err != nil {
			wg.Done()
			errOnce.Do(func() { firstErr = fmt.Errorf("failed to submit task to pool: %w", err) })
		}
	}
	wg.Wait()

	return int(saved.Load()), firstErr
}

// processContractLogs 解码并保存单个合约的日志
func (m *EventMonitor) processContractLogs(ctx context.Context, contract *chain.Contract, logs []types.Log) (int, error) {
	saved := 0
	for _, log := range logs {
		eventName, fields, err := contract.ParseEvent(log)
		if err != nil {
			// 无法解码的日志仍然记录，避免整批失败
			logger.Warn("Error parsing event for contract %s: %v", contract.Role(), err)
			if eventName == "" {
				eventName = chain.UnknownEvent
			}
			fields = map[string]interface{}{"error": err.Error()}
		}

		data, err := json.Marshal(fields)
		if err != nil {
			return saved, fmt.Errorf("failed to marshal event data: %w", err)
		}

		created, err := m.events.SaveEvent(ctx, &model.ChainEventModel{
			ContractRole:    contract.Role().String(),
			ContractAddress: contract.Address().Hex(),
			EventName:       eventName,
			TxHash:          log.TxHash.Hex(),
			LogIndex:        int64(log.Index),
			BlockNum:        int64(log.BlockNumber),
			Data:            string(data),
		})
		if err != nil {
			return saved, err
		}
		if created {
			saved++
			logger.Debug("Indexed %s.%s at block %d", contract.Role(), eventName, log.BlockNumber)
		}
	}
	return saved, nil
}

// groupLogsByContract 按合约地址分组日志
func groupLogsByContract(logs []types.Log) map[common.Address][]types.Log {
	logsByContract := make(map[common.Address][]types.Log)
	for _, log := range logs {
		logsByContract[log.Address] = append(logsByContract[log.Address], log)
	}
	return logsByContract
}
