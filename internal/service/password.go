package service

import (
	_ "embed"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Password policy limits. maxPasswordBytes is bcrypt's input limit; longer
// passwords would be rejected by the hasher anyway.
const (
	minPasswordLength  = 8
	maxPasswordBytes   = 72
	maxSimilarityRatio = 0.7
)

//go:embed common_passwords.txt
var commonPasswordList string

var commonPasswords = func() map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(commonPasswordList, "\n") {
		if p := strings.TrimSpace(line); p != "" {
			set[strings.ToLower(p)] = struct{}{}
		}
	}
	return set
}()

// passwordAttribute is a piece of user data the password must not resemble.
type passwordAttribute struct {
	label string // used in the message, e.g. "username"
	value string
}

// checkPassword applies the password policy and returns one message per
// failed rule. An empty result means the password is acceptable.
func checkPassword(password string, attrs ...passwordAttribute) []string {
	var problems []string

	if len([]rune(password)) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if len(password) > maxPasswordBytes {
		problems = append(problems, "This password is too long. It must contain at most 72 bytes.")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	// Similarity is quadratic in length; only bcrypt-sized input is compared.
	if len(password) > maxPasswordBytes {
		return problems
	}
	for _, a := range attrs {
		if tooSimilar(password, a.value) {
			problems = append(problems, "The password is too similar to the "+a.label+".")
			break
		}
	}
	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// tooSimilar reports whether password resembles value or any of its
// word-separated parts (so "jane.doe@example.com" is checked as a whole and
// as "jane", "doe", "example", "com").
func tooSimilar(password, value string) bool {
	password = strings.ToLower(password)
	value = strings.ToLower(value)
	if value == "" || password == "" {
		return false
	}

	parts := strings.FieldsFunc(value, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, candidate := range append([]string{value}, parts...) {
		if len(candidate) < 3 || !similarityReachable(password, candidate) {
			continue
		}
		if similarity(password, candidate) >= maxSimilarityRatio {
			return true
		}
	}
	return false
}

// similarityReachable reports whether the lengths of a and b alone allow
// similarity(a, b) to reach maxSimilarityRatio. The LCS is at most the
// shorter length, so the ratio is bounded by 2*min/(len(a)+len(b)).
func similarityReachable(a, b string) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	shorter := min(la, lb)
	return 2*float64(shorter) >= maxSimilarityRatio*float64(la+lb)
}

// similarity returns 2*LCS/(len(a)+len(b)), where LCS is the length of the
// longest common subsequence. Identical strings score 1, disjoint ones 0.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			switch {
			case ra[i-1] == rb[j-1]:
				curr[j] = prev[j-1] + 1
			case prev[j] >= curr[j-1]:
				curr[j] = prev[j]
			default:
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}
