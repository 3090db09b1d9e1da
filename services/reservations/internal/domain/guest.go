package domain

import (
	"fmt"

	"github.com/diagnosis/luxsuv-hotel/internal/utils"
)

// Guest carries identity and contact details only. Reservation history lives
// in the guest directory.
type Guest struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func NewGuest(id, name, email string) (Guest, error) {
	name = utils.NormalizeString(name)
	if name == "" {
		return Guest{}, fmt.Errorf("%w: name is required", ErrInvalidGuest)
	}
	if !utils.IsValidEmail(email) {
		return Guest{}, fmt.Errorf("%w: email must contain @", ErrInvalidGuest)
	}
	return Guest{ID: utils.NormalizeString(id), Name: name, Email: utils.NormalizeEmail(email)}, nil
}

func (g Guest) String() string {
	return fmt.Sprintf("%s (%s)", g.Name, g.Email)
}
