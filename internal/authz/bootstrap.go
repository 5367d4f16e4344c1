package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵。
// 员工可核销券与发放积分，管理员继承员工并拥有全部管理接口。
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "staff",
			Policies: []Policy{
				{Object: "/staff/coupons/:code", Action: "GET"},
				{Object: "/staff/coupons/:code/redeem", Action: "POST"},
				{Object: "/staff/accounts/:public_id", Action: "GET"},
				{Object: "/staff/accounts/:public_id/award-points", Action: "POST"},
				{Object: "/staff/redemptions", Action: "GET"},
			},
		},
		{
			Role:     "admin",
			Inherits: []string{"staff"},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
