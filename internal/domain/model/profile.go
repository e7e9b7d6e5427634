// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"encoding/json"
	"net/mail"
	"strings"
	"time"
)

// Role distinguishes the two pools of the directory.
type Role string

// Roles.
const (
	RoleSeeker    Role = "seeker"
	RoleCandidate Role = "candidate"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleCandidate
}

// Attribute names read by the matching engine.
const (
	// Seeker side.
	AttrNiche          = "niche"
	AttrDesignHelp     = "design_help"
	AttrToolsUsed      = "tools_used"
	AttrEstimatedHours = "estimated_hours"

	// Candidate side.
	AttrNicheInterest = "niche_interest"
	AttrFocus         = "focus"
	AttrTools         = "tools"
	AttrAvailability  = "availability"
	AttrGoals         = "goals"
)

// Display-only attribute names carried by the intake forms.
const (
	AttrProjectName      = "project_name"
	AttrWebsite          = "website"
	AttrProjectStage     = "project_stage"
	AttrPaidRole         = "paid_role"
	AttrBeginnerFriendly = "beginner_friendly"
	AttrSupportLevel     = "support_level"
	AttrCityCountry      = "city_country"
	AttrPortfolio        = "portfolio"
	AttrInterestAreas    = "interest_areas"
	AttrUnpaidExperience = "unpaid_experience"
	AttrFigmaExperience  = "figma_experience"
	AttrResources        = "resources"
	AttrNewsletter       = "newsletter"
	AttrExtraNotes       = "extra_notes"
)

// Attribute is a loosely typed profile value. A scalar is stored as a single
// element, a list as-is, and an absent value as nil.
type Attribute []string

// UnmarshalJSON accepts a string, an array of strings or null. Any other
// shape decodes to the empty attribute instead of failing the whole profile.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*a = nil
		} else {
			*a = Attribute{s}
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*a = list
		return nil
	}

	*a = nil
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for seed files.
func (a *Attribute) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		if s == "" {
			*a = nil
		} else {
			*a = Attribute{s}
		}
		return nil
	}
	var list []string
	if err := unmarshal(&list); err == nil {
		*a = list
		return nil
	}
	*a = nil
	return nil
}

// Empty reports whether the attribute carries no non-blank value.
func (a Attribute) Empty() bool {
	for _, v := range a {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// String joins the values for display.
func (a Attribute) String() string {
	return strings.Join(a, ", ")
}

// Profile is an immutable snapshot of a seeker or candidate.
type Profile struct {
	ID         string               `json:"id" yaml:"id"`
	Role       Role                 `json:"role" yaml:"role"`
	Name       string               `json:"full_name" yaml:"full_name"`
	Email      string               `json:"email" yaml:"email"`
	Attributes map[string]Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	CreatedAt  time.Time            `json:"created_at" yaml:"created_at,omitempty"`
}

// Get returns the named attribute or nil when absent.
func (p Profile) Get(name string) Attribute {
	if p.Attributes == nil {
		return nil
	}
	return p.Attributes[name]
}

// Text returns a scalar rendition of the named attribute.
func (p Profile) Text(name string) string {
	return strings.TrimSpace(p.Get(name).String())
}

// Contact returns the profile's usable email address.
func (p Profile) Contact() (string, bool) {
	raw := strings.TrimSpace(p.Email)
	if raw == "" {
		return "", false
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", false
	}
	return addr.Address, true
}
