package authz

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/util"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const (
	policyTable = "authz_rules"
	roleSubject = "role:"
	apiPrefix   = "/api/v1"
	adminRole   = roleSubject + "admin"
)

// 角色匹配不区分直接授权与继承授权，对象与动作均支持通配
const freightRBACModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

var (
	errNotReady = errors.New("authz service not ready")
	// ErrProtectedPolicy 管理员通配策略不可撤销
	ErrProtectedPolicy = errors.New("admin wildcard policy is protected")
)

// Policy 角色在业务对象上的授权
type Policy struct {
	Subject string `json:"subject"`
	Object  string `json:"object"`
	Action  string `json:"action"`
}

func (p Policy) key() string {
	return p.Subject + "|" + p.Object + "|" + p.Action
}

// Service 基于角色的业务动作授权
type Service struct {
	enforcer *casbin.SyncedEnforcer
}

// NewService 创建授权服务，策略持久化到 authz_rules 表
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("authz: db is nil")
	}
	adapter, err := gormadapter.NewAdapterByDBUseTableName(db, "", policyTable)
	if err != nil {
		return nil, fmt.Errorf("authz: adapter: %w", err)
	}
	m, err := model.NewModelFromString(freightRBACModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}
	enforcer.AddFunction("keyMatch", util.KeyMatchFunc)
	enforcer.EnableAutoSave(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}
	return &Service{enforcer: enforcer}, nil
}

func (s *Service) ready() error {
	if s == nil || s.enforcer == nil {
		return errNotReady
	}
	return nil
}

// Enforce 判定角色能否在对象上执行动作
func (s *Service) Enforce(role, object, action string) (bool, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	return s.enforcer.Enforce(subject, NormalizeObject(object), NormalizeAction(action))
}

// ReloadPolicy 从存储重新加载策略
func (s *Service) ReloadPolicy() error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.enforcer.LoadPolicy()
}

// ListRoles 列出持有策略或参与继承的角色
func (s *Service) ListRoles() ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	policies, err := s.enforcer.GetFilteredPolicy(0)
	if err != nil {
		return nil, fmt.Errorf("authz: list policies: %w", err)
	}
	for _, rule := range policies {
		if len(rule) > 0 {
			seen[rule[0]] = struct{}{}
		}
	}
	links, err := s.enforcer.GetFilteredNamedGroupingPolicy("g", 0)
	if err != nil {
		return nil, fmt.Errorf("authz: list role links: %w", err)
	}
	for _, link := range links {
		for _, name := range link {
			seen[name] = struct{}{}
		}
	}

	roles := make([]string, 0, len(seen))
	for name := range seen {
		if strings.HasPrefix(name, roleSubject) {
			roles = append(roles, name)
		}
	}
	sort.Strings(roles)
	return roles, nil
}

// InheritRole 让 role 继承 parent 的全部授权
func (s *Service) InheritRole(role, parent string) error {
	child, err := NormalizeRole(role)
	if err != nil {
		return err
	}
	base, err := NormalizeRole(parent)
	if err != nil {
		return err
	}
	if child == base {
		return fmt.Errorf("authz: role %s cannot inherit itself", child)
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddNamedGroupingPolicy("g", child, base); err != nil {
		return fmt.Errorf("authz: link %s -> %s: %w", child, base, err)
	}
	return nil
}

// GrantRolePolicy 授予角色目录内的对象动作
func (s *Service) GrantRolePolicy(role, object, action string) error {
	policy, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if err := ValidatePolicy(policy.Object, policy.Action); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.AddPolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("authz: grant %s: %w", policy.key(), err)
	}
	return nil
}

// RevokeRolePolicy 撤销角色的直接授权，继承来的授权不受影响
func (s *Service) RevokeRolePolicy(role, object, action string) error {
	policy, err := normalizePolicy(role, object, action)
	if err != nil {
		return err
	}
	if policy.Subject == adminRole && policy.Object == "/"+wildcard && policy.Action == wildcard {
		return ErrProtectedPolicy
	}
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.enforcer.RemovePolicy(policy.Subject, policy.Object, policy.Action); err != nil {
		return fmt.Errorf("authz: revoke %s: %w", policy.key(), err)
	}
	return nil
}

// GetRolePolicies 角色生效策略，包含继承自父角色的部分
func (s *Service) GetRolePolicies(role string) ([]Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	parents, err := s.enforcer.GetImplicitRolesForUser(subject)
	if err != nil {
		return nil, fmt.Errorf("authz: resolve parents of %s: %w", subject, err)
	}

	merged := make(map[string]Policy)
	for _, name := range append([]string{subject}, parents...) {
		rules, err := s.enforcer.GetFilteredPolicy(0, name)
		if err != nil {
			return nil, fmt.Errorf("authz: policies of %s: %w", name, err)
		}
		for _, rule := range rules {
			if len(rule) < 3 {
				continue
			}
			item := Policy{Subject: rule[0], Object: NormalizeObject(rule[1]), Action: NormalizeAction(rule[2])}
			merged[item.key()] = item
		}
	}

	result := make([]Policy, 0, len(merged))
	for _, item := range merged {
		result = append(result, item)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].key() < result[j].key() })
	return result, nil
}

func normalizePolicy(role, object, action string) (Policy, error) {
	subject, err := NormalizeRole(role)
	if err != nil {
		return Policy{}, err
	}
	act := NormalizeAction(action)
	if act == "" {
		return Policy{}, errors.New("authz: action is required")
	}
	return Policy{Subject: subject, Object: NormalizeObject(object), Action: act}, nil
}

// NormalizeRole 角色名转为策略主体，如 shipper -> role:shipper
func NormalizeRole(role string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(role))
	name = strings.TrimPrefix(name, roleSubject)
	name = strings.Join(strings.Fields(name), "_")
	if name == "" {
		return "", errors.New("authz: role is required")
	}
	return roleSubject + name, nil
}

// NormalizeObject 业务对象统一为不带 API 前缀的路径
func NormalizeObject(object string) string {
	path := strings.TrimSpace(object)
	path = strings.TrimPrefix(path, apiPrefix)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// NormalizeAction 动作统一为大写
func NormalizeAction(action string) string {
	return strings.ToUpper(strings.TrimSpace(action))
}
