package model

import "github.com/google/uuid"

type Role string

const (
	RoleManager Role = "MANAGER"
	RoleDriver  Role = "DRIVER"
)

// Principal is the authenticated identity extracted from the access token.
// OperatorID is set only for driver accounts and points into the external
// operator directory.
type Principal struct {
	UserID     uuid.UUID
	OperatorID *uuid.UUID
	Role       Role
}

func (p Principal) IsManager() bool {
	return p.Role == RoleManager
}

func (p Principal) IsDriver() bool {
	return p.Role == RoleDriver
}
