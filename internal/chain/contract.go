package chain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/blues/propdao/internal/config"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// UnknownEvent ABI 中找不到签名时使用的事件名
const UnknownEvent = "Unknown"

// Contract 已部署合约的句柄
type Contract struct {
	role     Role                // 合约角色
	address  common.Address      // 合约地址
	abi      abi.ABI             // 合约ABI
	blockNum int64               // 合约部署的区块号
	bound    *bind.BoundContract // 读写绑定
}

// NewContract 从配置加载 ABI 并创建合约句柄
func NewContract(backend bind.ContractBackend, role Role, cfg config.ContractConfig) (*Contract, error) {
	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("invalid address for contract %s: %q", role, cfg.Address)
	}

	parsedABI, err := LoadABI(cfg.ABIPath)
	if err != nil {
		return nil, err
	}

	return NewContractFromABI(backend, role, common.HexToAddress(cfg.Address), parsedABI, cfg.BlockNum), nil
}

// NewContractFromABI 使用已解析的 ABI 创建合约句柄
func NewContractFromABI(backend bind.ContractBackend, role Role, address common.Address, parsedABI abi.ABI, blockNum int64) *Contract {
	return &Contract{
		role:     role,
		address:  address,
		abi:      parsedABI,
		blockNum: blockNum,
		bound:    bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// LoadABI 读取 ABI 文件，支持纯 ABI 数组和 hardhat/foundry 编译输出
func LoadABI(path string) (abi.ABI, error) {
	abiData, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to load ABI from %s: %w", path, err)
	}

	// 首先尝试解析为完整编译输出
	var compiledOutput struct {
		ABI json.RawMessage `json:"abi"`
	}
	if err := json.Unmarshal(abiData, &compiledOutput); err == nil && compiledOutput.ABI != nil {
		parsedABI, err := abi.JSON(bytes.NewReader(compiledOutput.ABI))
		if err != nil {
			return abi.ABI{}, fmt.Errorf("failed to parse ABI from compiled output %s: %w", path, err)
		}
		return parsedABI, nil
	}

	parsedABI, err := abi.JSON(bytes.NewReader(abiData))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ABI %s: %w", path, err)
	}
	return parsedABI, nil
}

// Role 合约角色
func (c *Contract) Role() Role {
	return c.role
}

// Address 合约地址
func (c *Contract) Address() common.Address {
	return c.address
}

// ABI 合约ABI
func (c *Contract) ABI() abi.ABI {
	return c.abi
}

// BlockNum 合约部署区块号
func (c *Contract) BlockNum() int64 {
	return c.blockNum
}

// ParseEvent 按 ABI 解码事件日志，未知签名返回 UnknownEvent
func (c *Contract) ParseEvent(log types.Log) (string, map[string]interface{}, error) {
	if len(log.Topics) == 0 {
		return "", nil, errors.New("log has no topics")
	}

	event, err := c.abi.EventByID(log.Topics[0])
	if err != nil {
		return UnknownEvent, map[string]interface{}{"signature": log.Topics[0].Hex()}, nil
	}

	fields := make(map[string]interface{})

	// 解析索引参数
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(fields, indexed, log.Topics[1:]); err != nil {
			return event.Name, nil, fmt.Errorf("failed to parse indexed fields of %s: %w", event.Name, err)
		}
	}

	// 解析非索引参数
	if len(log.Data) > 0 {
		if err := event.Inputs.UnpackIntoMap(fields, log.Data); err != nil {
			return event.Name, nil, fmt.Errorf("failed to unpack %s: %w", event.Name, err)
		}
	}

	return event.Name, fields, nil
}
