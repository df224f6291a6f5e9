package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/blues/propdao/internal/config"
	"github.com/blues/propdao/internal/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	ErrNotConfigured = errors.New("chain is not configured")
	ErrReadOnly      = errors.New("no signing key configured")
)

// Backend 链客户端能力，ethclient.Client 满足该接口
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	LogReader
	ChainID(ctx context.Context) (*big.Int, error)
}

// Manager 单链合约管理器，启动时按角色构建一次合约句柄
type Manager struct {
	network   string
	chainId   *big.Int
	backend   Backend
	closer    func()
	key       *ecdsa.PrivateKey
	contracts map[Role]*Contract
}

// NewManager 连接配置中选定的网络并加载全部合约
func NewManager(ctx context.Context, cfg config.ChainConfig) (*Manager, error) {
	network, ok := cfg.ActiveNetwork()
	if !ok {
		return nil, fmt.Errorf("%w: network %q not found", ErrNotConfigured, cfg.Network)
	}
	if network.RpcUrl == "" {
		return nil, fmt.Errorf("%w: no RPC URL for network %q", ErrNotConfigured, cfg.Network)
	}

	logger.Info("Connecting chain client (network: %s, chain id: %d)", cfg.Network, network.ChainId)
	client, err := ethclient.DialContext(ctx, network.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Network, err)
	}

	// 测试连接
	if _, err := client.BlockNumber(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed (%s): %w", cfg.Network, err)
	}

	manager, err := newManager(client, cfg.Network, network)
	if err != nil {
		client.Close()
		return nil, err
	}
	manager.closer = client.Close

	if manager.chainId.Sign() == 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		manager.chainId = id
	}

	logger.Info("Chain manager ready: network=%s contracts=%d signer=%t", cfg.Network, len(manager.contracts), manager.key != nil)
	return manager, nil
}

// newManager 构建合约句柄，不访问网络
func newManager(backend Backend, name string, network config.NetworkConfig) (*Manager, error) {
	manager := &Manager{
		network:   name,
		chainId:   big.NewInt(network.ChainId),
		backend:   backend,
		contracts: make(map[Role]*Contract),
	}

	if network.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(network.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		manager.key = key
	}

	for name, contractCfg := range network.Contracts {
		role, err := ParseRole(name)
		if err != nil {
			return nil, err
		}

		contract, err := NewContract(backend, role, contractCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create contract %s: %w", role, err)
		}
		manager.contracts[role] = contract
		logger.Info("Loaded contract: %s (address: %s)", role, contract.Address().Hex())
	}

	return manager, nil
}

// GetContract 获取指定角色的合约
func (m *Manager) GetContract(role Role) (*Contract, error) {
	contract, exists := m.contracts[role]
	if !exists {
		return nil, fmt.Errorf("%w: contract %s", ErrNotConfigured, role)
	}
	return contract, nil
}

// Contracts 全部已加载的合约
func (m *Manager) Contracts() []*Contract {
	contracts := make([]*Contract, 0, len(m.contracts))
	for _, role := range Roles() {
		if contract, ok := m.contracts[role]; ok {
			contracts = append(contracts, contract)
		}
	}
	return contracts
}

// Block 区块读取工具
func (m *Manager) Block() *Block {
	return NewBlock(m.backend)
}

// Call 只读调用合约方法
func (m *Manager) Call(ctx context.Context, role Role, method string, args ...interface{}) ([]interface{}, error) {
	contract, err := m.GetContract(role)
	if err != nil {
		return nil, err
	}

	var out []interface{}
	if err := contract.bound.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, wrapCallError(role, method, err)
	}
	return out, nil
}

// Send 签名发送交易并等待上链，不重试，不设额外超时
func (m *Manager) Send(ctx context.Context, role Role, method string, args ...interface{}) (*types.Receipt, error) {
	contract, err := m.GetContract(role)
	if err != nil {
		return nil, err
	}
	if m.key == nil {
		return nil, ErrReadOnly
	}

	opts, err := bind.NewKeyedTransactorWithChainID(m.key, m.chainId)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	opts.Context = ctx

	// 估算 gas 时的 revert 会在这里返回
	tx, err := contract.bound.Transact(opts, method, args...)
	if err != nil {
		return nil, wrapCallError(role, method, err)
	}
	logger.Info("Transaction sent: %s.%s tx=%s", role, method, tx.Hash().Hex())

	receipt, err := bind.WaitMined(ctx, m.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for %s: %w", tx.Hash().Hex(), err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		callErr := &CallError{Role: role, Method: method, Err: ErrTxFailed}
		// 在失败区块重放调用获取原因
		_, replayErr := m.backend.CallContract(ctx, ethereum.CallMsg{
			From:  opts.From,
			To:    tx.To(),
			Gas:   tx.Gas(),
			Value: tx.Value(),
			Data:  tx.Data(),
		}, receipt.BlockNumber)
		if reason, ok := RevertReason(replayErr); ok {
			callErr.Reason = reason
		}
		logger.Warn("Transaction reverted: %s.%s tx=%s reason=%s", role, method, tx.Hash().Hex(), callErr.Reason)
		return receipt, callErr
	}

	return receipt, nil
}

// HealthStatus 获取链客户端和合约状态
func (m *Manager) HealthStatus(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{
		"network":       m.network,
		"chain_id":      m.chainId.String(),
		"client_status": "connected",
		"signer":        m.key != nil,
	}

	if m.backend == nil {
		health["client_status"] = "not_initialized"
	} else if blockNum, err := m.backend.BlockNumber(ctx); err != nil {
		health["client_status"] = "disconnected"
		health["error"] = err.Error()
	} else {
		health["block_number"] = blockNum
	}

	contracts := make(map[string]interface{}, len(m.contracts))
	for role, contract := range m.contracts {
		contracts[role.String()] = map[string]interface{}{
			"address":   contract.Address().Hex(),
			"block_num": contract.BlockNum(),
		}
	}
	health["contracts"] = contracts

	return health
}

// Close 关闭链客户端
func (m *Manager) Close() {
	if m.closer != nil {
		m.closer()
	}
	logger.Info("Chain manager closed")
}
