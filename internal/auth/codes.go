package auth

import (
	"strings"

	"github.com/nature-catalyst/impact-intake/constants"
	"github.com/nature-catalyst/impact-intake/internal/common"
)

// Codes maps static access codes onto reviewer roles. Codes are matched
// case-insensitively; empty codes from config disable that role's login.
type Codes struct {
	byCode map[string]constants.Role
}

func NewCodes(cfg common.AccessConfig) *Codes {
	c := &Codes{byCode: make(map[string]constants.Role, 3)}
	add := func(code string, role constants.Role) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			c.byCode[code] = role
		}
	}
	add(cfg.AdminCode, constants.RoleAdmin)
	add(cfg.NCGECode, constants.RoleNCGE)
	add(cfg.NCGDCode, constants.RoleNCGD)
	return c
}

// Resolve returns the role for an access code, or ErrUnauthorized.
func (c *Codes) Resolve(code string) (constants.Role, error) {
	role, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return "", common.NewAppError("UNAUTHORIZED", "invalid access code", common.ErrUnauthorized)
	}
	return role, nil
}
