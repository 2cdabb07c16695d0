// Package fallback holds the static demo accounts used when the database
// cannot be reached. One account per role tier. These emails must not exist
// in the database; if they ever do, the entries here win because the
// credential chain checks them first.
package fallback

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"github.com/saksaud/physiocare-api/internal/models"
)

type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         models.Role
}

var accounts []Account

func init() {
	accounts = []Account{
		{
			ID:           "1",
			Name:         "Admin User",
			Email:        "admin@physiocare.com",
			PasswordHash: mustHash("admin123"),
			Role:         models.RoleAdmin,
		},
		{
			ID:           "2",
			Name:         "Doctor User",
			Email:        "doctor@physiocare.com",
			PasswordHash: mustHash("doctor123"),
			Role:         models.RoleDoctor,
		},
		{
			ID:           "3",
			Name:         "Patient User",
			Email:        "patient@physiocare.com",
			PasswordHash: mustHash("patient123"),
			Role:         models.RolePatient,
		},
	}
}

func mustHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("fallback: cannot hash builtin password: %v", err)
	}
	return string(h)
}

func Find(email string) (*Account, bool) {
	for i := range accounts {
		if accounts[i].Email == email {
			return &accounts[i], true
		}
	}
	return nil, false
}
