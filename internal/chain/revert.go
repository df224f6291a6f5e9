package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrTxFailed 交易已上链但执行失败
var ErrTxFailed = errors.New("transaction failed")

// CallError 合约调用失败，Reason 为可解析的 revert 原因
type CallError struct {
	Role   Role
	Method string
	Reason string
	Err    error
}

func (e *CallError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s.%s reverted: %s", e.Role, e.Method, e.Reason)
	}
	return fmt.Sprintf("%s.%s failed: %v", e.Role, e.Method, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func wrapCallError(role Role, method string, err error) error {
	if err == nil {
		return nil
	}
	reason, _ := RevertReason(err)
	return &CallError{Role: role, Method: method, Reason: reason, Err: err}
}

// RevertReason 从 RPC 错误数据中提取 Error(string) 原因
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}

	var data []byte
	switch v := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(v)
		if decodeErr != nil {
			return "", false
		}
		data = decoded
	case []byte:
		data = v
	default:
		return "", false
	}

	reason, unpackErr := abi.UnpackRevert(data)
	if unpackErr != nil {
		return "", false
	}
	return reason, true
}
