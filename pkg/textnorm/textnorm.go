// Package textnorm folds names and documents into comparable search keys.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics and collapses whitespace, so "  JOÃO
// da  Silva" and "joao da silva" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Digits keeps only ASCII digits (phones, CPF).
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SearchKey combines the folded name with phone digits into one indexed column.
func SearchKey(name, phone string) string {
	key := Fold(name)
	if d := Digits(phone); d != "" {
		key += " " + d
	}
	return strings.TrimSpace(key)
}

// LikePattern turns a free-text query into a LIKE pattern against SearchKey.
func LikePattern(q string) string {
	folded := Fold(q)
	if folded == "" {
		return ""
	}
	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + replacer.Replace(folded) + "%"
}
