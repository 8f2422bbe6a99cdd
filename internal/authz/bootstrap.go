package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "participant",
			Policies: []Policy{
				{Object: "/loads", Action: "READ"},
				{Object: "/bids", Action: "READ"},
				{Object: "/shipments", Action: "READ"},
				{Object: "/invoices", Action: "READ"},
			},
		},
		{
			Role: "admin",
			Policies: []Policy{
				{Object: "/*", Action: "*"},
			},
		},
		{
			Role:     "shipper",
			Inherits: []string{"participant"},
			Policies: []Policy{
				{Object: "/loads", Action: "CREATE"},
				{Object: "/loads", Action: "CANCEL"},
				{Object: "/loads", Action: "UNAVAILABLE"},
				{Object: "/loads", Action: "RESUBMIT"},
				{Object: "/bids", Action: "ACCEPT"},
				{Object: "/bids", Action: "COUNTER"},
				{Object: "/bids", Action: "REJECT"},
				{Object: "/invoices", Action: "ACKNOWLEDGE"},
			},
		},
		{
			Role:     "carrier",
			Inherits: []string{"participant"},
			Policies: []Policy{
				{Object: "/bids", Action: "CREATE"},
				{Object: "/bids", Action: "RESPOND"},
				{Object: "/bids", Action: "WITHDRAW"},
				{Object: "/shipments", Action: "ASSIGN"},
				{Object: "/otp-requests", Action: "REQUEST"},
				{Object: "/otp-requests", Action: "VERIFY"},
				{Object: "/otp-requests", Action: "READ"},
				{Object: "/documents", Action: "CREATE"},
				{Object: "/documents", Action: "READ"},
				{Object: "/fleet", Action: "READ"},
			},
		},
	}
}

// BootstrapBuiltinRoles 写入预置角色矩阵，重复执行不产生重复策略
func (s *Service) BootstrapBuiltinRoles() error {
	if err := s.ready(); err != nil {
		return err
	}
	for _, seed := range BuiltinRoleSeeds() {
		for _, parent := range seed.Inherits {
			if err := s.InheritRole(seed.Role, parent); err != nil {
				return err
			}
		}
		for _, policy := range seed.Policies {
			if err := s.GrantRolePolicy(seed.Role, policy.Object, policy.Action); err != nil {
				return fmt.Errorf("authz: seed %s: %w", seed.Role, err)
			}
		}
	}
	return nil
}
