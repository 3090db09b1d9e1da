package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/luxsuv-hotel/pkg/auth"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/repository"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResponse, error)
	Authorize(employee domain.Employee, capability domain.Capability) error
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int64           `json:"expires_in"`
	Employee    domain.Employee `json:"employee"`
}

type authService struct {
	employees repository.EmployeeDirectory
	secret    string
	ttl       time.Duration
}

func NewAuthService(employees repository.EmployeeDirectory, secret string, ttl time.Duration) AuthService {
	return &authService{employees: employees, secret: secret, ttl: ttl}
}

func (s *authService) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	emp, err := s.employees.Authenticate(username, password)
	if err != nil {
		return nil, err
	}

	token, err := auth.NewAccessToken(emp.ID, emp.Name, emp.CapabilityNames(), s.secret, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.ttl.Seconds()),
		Employee:    emp,
	}, nil
}

// Authorize is the single place capability checks are made.
func (s *authService) Authorize(employee domain.Employee, capability domain.Capability) error {
	if !employee.Can(capability) {
		return fmt.Errorf("%w: %s requires %s", domain.ErrForbidden, employee.Name, capability)
	}
	return nil
}

// EmployeeFromClaims rebuilds the caller's identity from a verified token.
// Unknown capability names are ignored.
func EmployeeFromClaims(c *auth.Claims) domain.Employee {
	emp := domain.Employee{ID: c.Sub, Name: c.Name}
	for _, name := range c.Capabilities {
		if capability, ok := domain.ParseCapability(name); ok {
			emp.Capabilities = append(emp.Capabilities, capability)
		}
	}
	return emp
}
