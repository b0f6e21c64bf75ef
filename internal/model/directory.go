package model

import "github.com/google/uuid"

type ResourceKind string

const (
	ResourceKindTruck     ResourceKind = "truck"
	ResourceKindEquipment ResourceKind = "equipment"
)

type ResourceStatus string

const (
	ResourceStatusInService   ResourceStatus = "in_service"
	ResourceStatusBrokenDown  ResourceStatus = "broken_down"
	ResourceStatusMaintenance ResourceStatus = "maintenance"
)

// Resource is a truck or equipment unit owned by the external resource
// directory. This service only reads it.
type Resource struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Kind   ResourceKind   `json:"kind"`
	Status ResourceStatus `json:"status"`
}

// OperatorRoleDriver is the directory role an operator must carry to be
// bound to a resource.
const OperatorRoleDriver = "DRIVER"

// Operator is a driver record owned by the external operator directory.
type Operator struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Roles    []string  `json:"roles"`
}

func (o Operator) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}
