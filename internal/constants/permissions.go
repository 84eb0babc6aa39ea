package constants

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// PermissionType mirrors the permission_type column of user_permissions.
type PermissionType string

const (
	PermissionTryout   PermissionType = "tryout"
	PermissionTraining PermissionType = "training"
)

// PermissionBoth is accepted on input only and expands to both permission types.
const PermissionBoth = "both"

func (p PermissionType) String() string { return string(p) }

// ParsePermissions expands a user supplied permission selector.
func ParsePermissions(s string) ([]PermissionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(PermissionTryout):
		return []PermissionType{PermissionTryout}, nil
	case string(PermissionTraining):
		return []PermissionType{PermissionTraining}, nil
	case PermissionBoth:
		return []PermissionType{PermissionTryout, PermissionTraining}, nil
	default:
		return nil, fmt.Errorf("unknown permission type %q", s)
	}
}

// Scan implements the sql.Scanner interface
func (p *PermissionType) Scan(src interface{}) error {
	if src == nil {
		*p = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*p = PermissionType(v)
	case []byte:
		*p = PermissionType(v)
	default:
		return fmt.Errorf("PermissionType: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (p PermissionType) Value() (driver.Value, error) { return string(p), nil }
