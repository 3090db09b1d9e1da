package repository

import (
	"fmt"
	"slices"
	"sync"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"

	"github.com/diagnosis/luxsuv-hotel/internal/utils"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

// EmployeeDirectory stores staff accounts with argon2id password hashes.
type EmployeeDirectory interface {
	Create(emp domain.Employee, password string) (domain.Employee, error)
	CreateWithHash(emp domain.Employee, passwordHash string) (domain.Employee, error)
	Get(id string) (domain.Employee, error)
	Authenticate(username, password string) (domain.Employee, error)
}

type employeeDirectory struct {
	mu         sync.RWMutex
	byID       map[string]domain.Employee
	byUsername map[string]string
}

func NewEmployeeDirectory() EmployeeDirectory {
	return &employeeDirectory{
		byID:       make(map[string]domain.Employee),
		byUsername: make(map[string]string),
	}
}

func (d *employeeDirectory) Create(emp domain.Employee, password string) (domain.Employee, error) {
	if password == "" {
		return domain.Employee{}, fmt.Errorf("password is required")
	}
	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return d.CreateWithHash(emp, hash)
}

func (d *employeeDirectory) CreateWithHash(emp domain.Employee, passwordHash string) (domain.Employee, error) {
	emp.Username = utils.NormalizeKey(emp.Username)
	if emp.Username == "" {
		return domain.Employee{}, fmt.Errorf("username is required")
	}
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.PasswordHash = passwordHash
	emp.Capabilities = slices.Clone(emp.Capabilities)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byUsername[emp.Username]; ok {
		return domain.Employee{}, fmt.Errorf("employee %q already exists", emp.Username)
	}
	if _, ok := d.byID[emp.ID]; ok {
		return domain.Employee{}, fmt.Errorf("employee id %q already exists", emp.ID)
	}
	d.byID[emp.ID] = emp
	d.byUsername[emp.Username] = emp.ID
	return emp, nil
}

func (d *employeeDirectory) Get(id string) (domain.Employee, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	emp, ok := d.byID[id]
	if !ok {
		return domain.Employee{}, domain.ErrEmployeeNotFound
	}
	return emp, nil
}

// Authenticate verifies the password outside the lock.
func (d *employeeDirectory) Authenticate(username, password string) (domain.Employee, error) {
	d.mu.RLock()
	id, ok := d.byUsername[utils.NormalizeKey(username)]
	emp := d.byID[id]
	d.mu.RUnlock()

	if !ok {
		return domain.Employee{}, domain.ErrInvalidCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(password, emp.PasswordHash)
	if err != nil {
		return domain.Employee{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return domain.Employee{}, domain.ErrInvalidCredentials
	}
	return emp, nil
}
