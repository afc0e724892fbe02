// Package textfmt holds the display casing shared by the panels, the demo
// source and the planner client.
package textfmt

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Capitalize upper-cases the first rune and leaves the rest untouched.
func Capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return cases.Upper(language.English).String(s[:size]) + s[size:]
}

// TitleWords turns a snake_case key into "Title Case Words". Letters after
// the first of each word keep their case, so "co2" reads "Co2" and "CO2"
// stays "CO2".
func TitleWords(key string) string {
	return cases.Title(language.English, cases.NoLower).String(strings.ReplaceAll(key, "_", " "))
}
