// Package credentials derives employee login handles and generates
// passwords that follow the configured composition policy.
//
// Passwords come from math/rand/v2. They are unpredictable enough for
// first-login credentials handed out by staff, but this is not a
// security-grade secret generator.
package credentials

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ksk-project/employee-service/internal/models"
)

const (
	upperAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabet = "abcdefghijklmnopqrstuvwxyz"
	digitAlphabet = "0123456789"
)

// Capitalize upper-cases the first rune of s and lower-cases the rest.
func Capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// GenerateLogin builds "{regionCode}_{LastName}_{F}{P}". The patronymic
// initial is omitted when there is no patronymic. Collisions are the
// caller's problem.
func GenerateLogin(lastName, firstName, patronymic, regionCode string) string {
	var b strings.Builder
	b.WriteString(regionCode)
	b.WriteByte('_')
	b.WriteString(Capitalize(lastName))
	b.WriteByte('_')
	b.WriteString(initial(firstName))
	b.WriteString(initial(patronymic))
	return b.String()
}

func initial(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

// Generator produces passwords. The zero value uses the global source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from rng. A nil rng means the
// global math/rand/v2 source.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

func (g *Generator) intN(n int) int {
	if g == nil || g.rng == nil {
		return rand.IntN(n)
	}
	return g.rng.IntN(n)
}

// Password returns a shuffled string holding exactly policy.Uppercase
// upper-case letters, policy.Lowercase lower-case letters, policy.Digits
// digits and policy.Symbols runes from policy.AllowedSymbols. An empty
// symbol alphabet yields no symbols regardless of the requested count.
func (g *Generator) Password(policy models.PasswordPolicy) string {
	chars := make([]rune, 0, max(policy.Length(), 0))
	chars = g.pick(chars, []rune(upperAlphabet), policy.Uppercase)
	chars = g.pick(chars, []rune(lowerAlphabet), policy.Lowercase)
	chars = g.pick(chars, []rune(digitAlphabet), policy.Digits)
	if policy.AllowedSymbols != "" {
		chars = g.pick(chars, []rune(policy.AllowedSymbols), policy.Symbols)
	}

	// Fisher-Yates
	for i := len(chars) - 1; i > 0; i-- {
		j := g.intN(i + 1)
		chars[i], chars[j] = chars[j], chars[i]
	}

	return string(chars)
}

func (g *Generator) pick(dst []rune, alphabet []rune, n int) []rune {
	for range n {
		dst = append(dst, alphabet[g.intN(len(alphabet))])
	}
	return dst
}
