package models

import "time"

type AccountRole string

const (
	AccountRoleCustomer   AccountRole = "customer"
	AccountRoleTrainer    AccountRole = "trainer"
	AccountRoleAdmin      AccountRole = "admin"
	AccountRoleSuperAdmin AccountRole = "superadmin"
)

func (r AccountRole) Valid() bool {
	switch r {
	case AccountRoleCustomer, AccountRoleTrainer, AccountRoleAdmin, AccountRoleSuperAdmin:
		return true
	}
	return false
}

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusDisabled AccountStatus = "disabled"
)

type Account struct {
	ID           string
	TenantID     string
	Email        string
	Username     *string
	PasswordHash []byte
	FirstName    string
	LastName     string
	Phone        *string
	DateOfBirth  *time.Time
	Role         AccountRole
	Status       AccountStatus
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
