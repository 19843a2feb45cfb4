package models

import (
	"fmt"
	"time"
)

// DefaultAllowedSymbols is the symbol alphabet of a freshly bootstrapped policy.
const DefaultAllowedSymbols = "!@#$%^&*()-_=+<>?"

// PasswordPolicy describes the exact character-class composition of
// generated employee passwords. At most one exists.
type PasswordPolicy struct {
	Uppercase      int       `db:"uppercase" json:"uppercase"`
	Lowercase      int       `db:"lowercase" json:"lowercase"`
	Digits         int       `db:"digits" json:"digits"`
	Symbols        int       `db:"symbols" json:"symbols"`
	AllowedSymbols string    `db:"allowed_symbols" json:"allowed_symbols"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultPasswordPolicy returns the policy used when none is stored.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		Uppercase:      1,
		Lowercase:      1,
		Digits:         1,
		Symbols:        1,
		AllowedSymbols: DefaultAllowedSymbols,
	}
}

// Length is the size of every password generated under p.
func (p PasswordPolicy) Length() int {
	n := p.Uppercase + p.Lowercase + p.Digits
	if p.AllowedSymbols != "" {
		n += p.Symbols
	}
	return n
}

func (p PasswordPolicy) String() string {
	return fmt.Sprintf("A:%d a:%d 0:%d sym:%d [%s]",
		p.Uppercase, p.Lowercase, p.Digits, p.Symbols, p.AllowedSymbols)
}

// PasswordPolicyRequest is used for policy creation/update
type PasswordPolicyRequest struct {
	Uppercase      int    `json:"uppercase" validate:"min=0,max=64"`
	Lowercase      int    `json:"lowercase" validate:"min=0,max=64"`
	Digits         int    `json:"digits" validate:"min=0,max=64"`
	Symbols        int    `json:"symbols" validate:"min=0,max=64"`
	AllowedSymbols string `json:"allowed_symbols" validate:"max=100,symbolset"`
}

// Policy converts the request into a policy value.
func (r PasswordPolicyRequest) Policy() PasswordPolicy {
	return PasswordPolicy{
		Uppercase:      r.Uppercase,
		Lowercase:      r.Lowercase,
		Digits:         r.Digits,
		Symbols:        r.Symbols,
		AllowedSymbols: r.AllowedSymbols,
	}
}
