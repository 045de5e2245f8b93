package view

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var extension = regexp.MustCompile(`\.[^/.]+$`)

// ImageLabel turns a stored image name or URL into a caption:
// "pain_de-mie.png" becomes "Pain de mie".
func ImageLabel(nameOrURL string) string {
	name := path.Base(nameOrURL)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "." || name == "/" {
		return ""
	}
	name = extension.ReplaceAllString(name, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
