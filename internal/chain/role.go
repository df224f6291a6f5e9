package chain

import (
	"fmt"
	"strings"
)

// Role 合约角色，闭合枚举
type Role string

const (
	RoleTokenRegistry Role = "token_registry" // 房产代币注册合约
	RoleMarketplace   Role = "marketplace"    // 二级市场合约
	RoleDistribution  Role = "distribution"   // 收益分配合约
	RoleDAO           Role = "dao"            // 治理合约
)

// Roles 全部合约角色
func Roles() []Role {
	return []Role{RoleTokenRegistry, RoleMarketplace, RoleDistribution, RoleDAO}
}

// ParseRole 解析合约角色，兼容大小写和连字符
func ParseRole(s string) (Role, error) {
	normalized := Role(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, role := range Roles() {
		if role == normalized {
			return role, nil
		}
	}
	return "", fmt.Errorf("unknown contract role: %q", s)
}

func (r Role) String() string {
	return string(r)
}
