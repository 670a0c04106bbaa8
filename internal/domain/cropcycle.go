package domain

import "time"

// CycleStatus is the lifecycle state of a crop cycle.
type CycleStatus string

const (
	CycleStatusOpen   CycleStatus = "OPEN"
	CycleStatusClosed CycleStatus = "CLOSED"
)

// CropCycle is the accounting period of the agricultural ledger. Postings are
// dated within a cycle; closing a cycle consolidates income and expense into
// retained earnings.
type CropCycle struct {
	ID        string
	TenantID  string
	Name      string
	StartDate time.Time
	EndDate   time.Time
	Status    CycleStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidatePostingDate checks that a posting may be dated d within this cycle.
func (c *CropCycle) ValidatePostingDate(tenantID string, d time.Time) error {
	if c.TenantID != tenantID {
		return ErrCropCycleNotFound
	}

	if c.Status != CycleStatusOpen {
		return ErrCycleNotOpen
	}

	if d.Before(c.StartDate) || d.After(c.EndDate) {
		return ErrDateOutsideCycle
	}

	return nil
}

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive ProjectStatus = "ACTIVE"
	ProjectStatusClosed ProjectStatus = "CLOSED"
)

// Project is a cost-sharing scope within a crop cycle. The ledger reaches a
// project only through AllocationRows, never through a direct foreign key on
// PostingGroup.
type Project struct {
	ID          string
	TenantID    string
	CropCycleID string
	Name        string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
