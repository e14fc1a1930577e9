package domain

import "fmt"

// Field names one of the three predicted profile attributes.
type Field string

const (
	FieldAge     Field = "age"
	FieldGender  Field = "gender"
	FieldCountry Field = "country"
)

// Fields lists every predicted field in fetch order.
var Fields = []Field{FieldAge, FieldGender, FieldCountry}

// Valid reports whether f is one of the known fields.
func (f Field) Valid() bool {
	switch f {
	case FieldAge, FieldGender, FieldCountry:
		return true
	}
	return false
}

// UnsetAge marks a profile whose age has not been resolved.
const UnsetAge = -1

// Profile is the inferred profile for one query name. Each field arrives independently.
type Profile struct {
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Country string `json:"country"`
}

// NewProfile returns a profile with every field unset.
func NewProfile() Profile {
	return Profile{Age: UnsetAge}
}

// Complete reports whether every field holds a usable value.
func (p Profile) Complete() bool {
	return p.Age != 0 && p.Age != UnsetAge && p.Gender != "" && p.Country != ""
}

// Sentence renders the profile for the given name.
func (p Profile) Sentence(name string) string {
	return fmt.Sprintf("%s, a %d-year-old %s, from %s.", name, p.Age, p.Gender, p.Country)
}

// Apply commits a found outcome onto the profile. Outcomes without data are ignored.
func (p Profile) Apply(o FieldOutcome) Profile {
	if !o.Found {
		return p
	}
	switch o.Field {
	case FieldAge:
		p.Age = o.Age
	case FieldGender:
		p.Gender = o.Text
	case FieldCountry:
		p.Country = o.Text
	}
	return p
}

// FieldOutcome is the parsed result of a single field fetch.
type FieldOutcome struct {
	Field  Field  `json:"field"`
	Found  bool   `json:"found"`
	Age    int    `json:"age,omitempty"`
	Text   string `json:"text,omitempty"`
	Status int    `json:"status"`
}
