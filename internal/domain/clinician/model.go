package clinician

import (
	"strings"
	"time"
)

// Profile is the caller's own record in the users table, keyed by the
// identity provider subject.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Specialty     string    `json:"specialty"`
	LicenseNumber string    `json:"license_number"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ProfileInput struct {
	Email         string `json:"email" validate:"omitempty,email"`
	FullName      string `json:"full_name" validate:"required"`
	Specialty     string `json:"specialty"`
	LicenseNumber string `json:"license_number"`
	Phone         string `json:"phone"`
}

func (in *ProfileInput) apply(p *Profile) {
	p.Email = strings.TrimSpace(in.Email)
	p.FullName = strings.TrimSpace(in.FullName)
	p.Specialty = strings.TrimSpace(in.Specialty)
	p.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	p.Phone = strings.TrimSpace(in.Phone)
}
