package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// PasswordConfig controls the strength policy. Each character-class
// requirement can be toggled independently.
type PasswordConfig struct {
	MinLength      int
	RequireUpper   bool
	RequireLower   bool
	RequireDigit   bool
	RequireSpecial bool
	BcryptCost     int
}

// DefaultPasswordConfig enables every class requirement with an 8 character
// minimum.
func DefaultPasswordConfig() PasswordConfig {
	return PasswordConfig{
		MinLength:      8,
		RequireUpper:   true,
		RequireLower:   true,
		RequireDigit:   true,
		RequireSpecial: true,
		BcryptCost:     bcrypt.DefaultCost,
	}
}

// PasswordPolicy hashes and verifies credentials, enforces strength rules,
// and generates policy-compliant passwords. Assessment is decoupled from
// hashing so callers can pre-validate before paying the bcrypt work factor.
type PasswordPolicy struct {
	cfg PasswordConfig
}

func NewPasswordPolicy(cfg PasswordConfig) *PasswordPolicy {
	if cfg.MinLength <= 0 {
		cfg.MinLength = 8
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &PasswordPolicy{cfg: cfg}
}

// StrengthResult aggregates every violated rule; nothing short-circuits.
type StrengthResult struct {
	OK         bool
	Violations []string
}

// commonPasswords is a small exact-match denylist. Comparison is
// case-insensitive.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein":     {},
	"iloveyou":    {},
	"admin123":    {},
	"welcome1":    {},
	"sunshine":    {},
	"football":    {},
	"dragon123":   {},
}

// sequenceSources are the known keyboard, alphabetic, and numeric runs.
// Windows of the password are matched against them forward and reversed.
var sequenceSources = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"abcdefghijklmnopqrstuvwxyz",
	"01234567890",
}

const (
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars   = "0123456789"
	specialChars = "!@#$%^&*()-_=+[]{}?<>"
)

// Hash returns a salted one-way hash of plaintext, rejecting passwords that
// fail the strength policy with ErrWeakPassword.
func (p *PasswordPolicy) Hash(plaintext string) (string, error) {
	if res := p.AssessStrength(plaintext); !res.OK {
		return "", ErrWeakPassword.WithViolations(res.Violations)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cfg.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify compares plaintext against a stored hash. A mismatch returns false,
// never an error.
func (p *PasswordPolicy) Verify(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// AssessStrength evaluates every enabled rule and returns all violations
// together so callers can display them at once.
func (p *PasswordPolicy) AssessStrength(plaintext string) StrengthResult {
	var violations []string

	if utf8.RuneCountInString(plaintext) < p.cfg.MinLength {
		violations = append(violations, fmt.Sprintf("must be at least %d characters long", p.cfg.MinLength))
	}
	if p.cfg.RequireUpper && !strings.ContainsFunc(plaintext, unicode.IsUpper) {
		violations = append(violations, "must contain an uppercase letter")
	}
	if p.cfg.RequireLower && !strings.ContainsFunc(plaintext, unicode.IsLower) {
		violations = append(violations, "must contain a lowercase letter")
	}
	if p.cfg.RequireDigit && !strings.ContainsFunc(plaintext, unicode.IsDigit) {
		violations = append(violations, "must contain a digit")
	}
	if p.cfg.RequireSpecial && !strings.ContainsAny(plaintext, specialChars) {
		violations = append(violations, "must contain a special character")
	}
	if _, common := commonPasswords[strings.ToLower(plaintext)]; common {
		violations = append(violations, "is a commonly used password")
	}
	if hasRepeatedRun(plaintext, 3) {
		violations = append(violations, "must not repeat the same character three or more times in a row")
	}
	if hasRepeatingPattern(plaintext) {
		violations = append(violations, "must not consist mostly of a repeating pattern")
	}
	if hasSequentialRun(plaintext) {
		violations = append(violations, "must not contain sequential characters")
	}

	return StrengthResult{OK: len(violations) == 0, Violations: violations}
}

// Generate produces a password that satisfies every enabled class
// requirement: one character per required class is seeded up front, the
// remainder is filled from the full pool, and the result is shuffled with a
// crypto-rand permutation so the seeded characters are not positionally
// predictable. Candidates that trip a structural rule (repeats, sequences)
// are re-drawn.
func (p *PasswordPolicy) Generate(length int) (string, error) {
	if length <= 0 {
		length = 16
	}
	if length < p.cfg.MinLength {
		length = p.cfg.MinLength
	}

	var seeds []string
	if p.cfg.RequireLower {
		seeds = append(seeds, lowerChars)
	}
	if p.cfg.RequireUpper {
		seeds = append(seeds, upperChars)
	}
	if p.cfg.RequireDigit {
		seeds = append(seeds, digitChars)
	}
	if p.cfg.RequireSpecial {
		seeds = append(seeds, specialChars)
	}
	if length < len(seeds) {
		length = len(seeds)
	}
	pool := lowerChars + upperChars + digitChars + specialChars

	for attempt := 0; attempt < 100; attempt++ {
		chars := make([]byte, 0, length)
		for _, set := range seeds {
			c, err := randomChar(set)
			if err != nil {
				return "", err
			}
			chars = append(chars, c)
		}
		for len(chars) < length {
			c, err := randomChar(pool)
			if err != nil {
				return "", err
			}
			chars = append(chars, c)
		}
		if err := shuffle(chars); err != nil {
			return "", err
		}
		candidate := string(chars)
		if p.AssessStrength(candidate).OK {
			return candidate, nil
		}
	}
	return "", errors.New("password generation failed")
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

func shuffle(chars []byte) error {
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		chars[i], chars[j] = chars[j], chars[i]
	}
	return nil
}

// hasRepeatedRun reports whether any character repeats at least n times
// consecutively.
func hasRepeatedRun(s string, n int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasRepeatingPattern reports whether some sub-pattern, repeated
// consecutively anywhere in the string, covers at least half of it.
func hasRepeatingPattern(s string) bool {
	for start := 0; start < len(s); start++ {
		for size := 1; size <= (len(s)-start)/2; size++ {
			pattern := s[start : start+size]
			repeats := 1
			for i := start + size; i+size <= len(s) && s[i:i+size] == pattern; i += size {
				repeats++
			}
			if repeats >= 2 && repeats*size*2 >= len(s) {
				return true
			}
		}
	}
	return false
}

// hasSequentialRun reports whether the password contains a 4-character run
// drawn from a known keyboard, alphabetic, or numeric sequence (either
// direction), or a 3-character run covering at least 40% of the string.
func hasSequentialRun(s string) bool {
	lowered := strings.ToLower(s)
	if containsSequenceWindow(lowered, 4) {
		return true
	}
	if 3*5 >= len(s)*2 { // 3/len >= 0.4
		return containsSequenceWindow(lowered, 3)
	}
	return false
}

func containsSequenceWindow(lowered string, window int) bool {
	if len(lowered) < window {
		return false
	}
	for i := 0; i+window <= len(lowered); i++ {
		chunk := lowered[i : i+window]
		for _, src := range sequenceSources {
			if strings.Contains(src, chunk) || strings.Contains(src, reverse(chunk)) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
