package authz

import (
	"fmt"
	"sort"
)

const wildcard = "*"

// CatalogEntry 业务对象及其可授权动作
type CatalogEntry struct {
	Object  string   `json:"object"`
	Actions []string `json:"actions"`
}

var permissionCatalog = map[string][]string{
	"/loads":        {"CREATE", "PRICE", "POST", "OPEN", "CANCEL", "UNAVAILABLE", "RESUBMIT", "CLOSE", "READ"},
	"/bids":         {"CREATE", "ACCEPT", "COUNTER", "REJECT", "RESPOND", "WITHDRAW", "READ"},
	"/shipments":    {"ASSIGN", "READ"},
	"/otp-requests": {"REQUEST", "APPROVE", "REJECT", "REGENERATE", "VERIFY", "READ"},
	"/invoices":     {"CREATE", "SEND", "ACKNOWLEDGE", "PAY", "READ"},
	"/documents":    {"CREATE", "READ"},
	"/fleet":        {"CREATE", "ASSIGN", "READ"},
}

// Catalog 返回可授权的对象动作目录
func Catalog() []CatalogEntry {
	entries := make([]CatalogEntry, 0, len(permissionCatalog))
	for object, actions := range permissionCatalog {
		copied := append([]string(nil), actions...)
		sort.Strings(copied)
		entries = append(entries, CatalogEntry{Object: object, Actions: copied})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Object < entries[j].Object })
	return entries
}

// ValidatePolicy 校验对象与动作是否在目录内，"/*" 与 "*" 视为通配
func ValidatePolicy(object, action string) error {
	obj := NormalizeObject(object)
	act := NormalizeAction(action)
	if act == "" {
		return fmt.Errorf("action is required")
	}
	if obj == "/"+wildcard {
		return nil
	}
	actions, ok := permissionCatalog[obj]
	if !ok {
		return fmt.Errorf("unknown object: %s", obj)
	}
	if act == wildcard {
		return nil
	}
	for _, item := range actions {
		if item == act {
			return nil
		}
	}
	return fmt.Errorf("unknown action %s for %s", act, obj)
}
