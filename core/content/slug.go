package content

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const slugMaxLen = 120

var (
	reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
	reHyphen   = regexp.MustCompile(`-+`)
)

// Slugify turns a title into [a-z0-9-], dropping diacritics ("Día de campeonato" -> "dia-de-campeonato").
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var buf []rune
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		buf = append(buf, r)
	}
	s = reNonAlnum.ReplaceAllString(string(buf), "-")
	s = reHyphen.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if utf8.RuneCountInString(s) > slugMaxLen {
		s = strings.Trim(string([]rune(s)[:slugMaxLen]), "-")
	}
	if s == "" {
		s = "contenido"
	}
	return s
}

// UniqueSlug returns base, or base-<id> when base is already taken by another content.
func UniqueSlug(base string, id int, taken bool) string {
	if !taken {
		return base
	}
	return base + "-" + strconv.Itoa(id)
}
