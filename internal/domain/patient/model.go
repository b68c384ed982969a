package patient

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "Masculino"
	GenderFemale = "Femenino"
	GenderOther  = "Otro"
)

var validGenders = map[string]bool{
	GenderMale:   true,
	GenderFemale: true,
	GenderOther:  true,
}

// Patient maps to the patients table. BedID is read from the bed that
// references the patient and is never written through this type.
type Patient struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	DOB               string    `db:"dob" json:"dob"`
	Gender            string    `db:"gender" json:"gender"`
	BloodType         string    `db:"blood_type" json:"blood_type"`
	Allergies         []string  `db:"allergies" json:"allergies"`
	ChronicConditions []string  `db:"chronic_conditions" json:"chronic_conditions"`
	Contact           string    `db:"contact" json:"contact"`
	BedID             *int      `db:"bed_id" json:"bed_id"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Admitted reports whether the patient currently occupies a bed.
func (p *Patient) Admitted() bool { return p.BedID != nil }

// PatientInput is the create/update request body.
type PatientInput struct {
	Name              string   `json:"name" validate:"required"`
	DOB               string   `json:"dob" validate:"required,datetime=2006-01-02"`
	Gender            string   `json:"gender" validate:"required,oneof=Masculino Femenino Otro"`
	BloodType         string   `json:"blood_type"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
	Contact           string   `json:"contact"`
}

func (in *PatientInput) apply(p *Patient) {
	p.Name = in.Name
	p.DOB = in.DOB
	p.Gender = in.Gender
	p.BloodType = in.BloodType
	p.Allergies = in.Allergies
	p.ChronicConditions = in.ChronicConditions
	p.Contact = in.Contact
}
