package models

import (
	"strings"
	"time"
)

type Education struct {
	Degree          string `db:"degree" json:"degree"`
	Specialization  string `db:"specialization" json:"specialization"`
	College         string `db:"college" json:"college"`
	CollegeLocation string `db:"college_location" json:"collegeLocation"`
	CurrentYear     string `db:"current_year" json:"currentYear"`
	GraduationYear  string `db:"graduation_year" json:"graduationYear"`
}

func (e Education) IsComplete() bool {
	return allPresent(e.Degree, e.Specialization, e.College, e.CollegeLocation, e.CurrentYear, e.GraduationYear)
}

// UserProfile is the users/{id} record, keyed by the identity id.
type UserProfile struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Email       string `db:"email" json:"email"`
	DisplayName string `db:"display_name" json:"displayName"`
	Phone       string `db:"phone" json:"phone"`
	WhatsApp    string `db:"whatsapp" json:"whatsapp"`
	Education   `json:"education"`
	IsVerified  bool       `db:"is_verified" json:"isVerified"`
	LastLogin   *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updatedAt"`
}

// HasContactDetails reports whether name, email and whatsapp are all filled in.
func (p *UserProfile) HasContactDetails() bool {
	if p == nil {
		return false
	}
	return allPresent(p.Name, p.Email, p.WhatsApp)
}

// IsComplete is the navigation gate: the three contact fields and all six
// education fields must be non-blank.
func (p *UserProfile) IsComplete() bool {
	return p.HasContactDetails() && p.Education.IsComplete()
}

func allPresent(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
