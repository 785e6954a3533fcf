package domain

import "time"

// Project domain model (projects table). A project belongs to one program and
// owns a set of units.
type Project struct {
	ProjectID   string    `db:"project_id"`
	ProgramID   string    `db:"program_id"`
	ProjectName string    `db:"project_name"`
	Barangay    string    `db:"barangay"`
	CreatedAt   time.Time `db:"created_at"`
}

// UnitStatus of a housing unit.
type UnitStatus string

const (
	UnitAvailable   UnitStatus = "available"
	UnitReserved    UnitStatus = "reserved"
	UnitAllocated   UnitStatus = "allocated"
	UnitOccupied    UnitStatus = "occupied"
	UnitMaintenance UnitStatus = "maintenance"
)

// Unit domain model (units table). ProgramID is denormalized from the project
// so proposal selection does not need a join.
type Unit struct {
	UnitID    string `db:"unit_id"`
	ProjectID string `db:"project_id"`
	ProgramID string `db:"program_id"`

	UnitNo   string `db:"unit_no"`
	UnitType string `db:"unit_type"` // rowhouse/walkup/lot, reference data

	Status UnitStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
