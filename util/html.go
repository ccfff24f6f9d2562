package util

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Excerpt strips all tags from rendered HTML and truncates the remaining
// text, for use in record listings and badges.
func Excerpt(input string, maxRunes int) string {

	tokenizer := html.NewTokenizerFragment(strings.NewReader(input), "body")
	tokenizer.SetMaxBuf(4096) // roughly the maximum number of bytes tokenized

	var text = &bytes.Buffer{}

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break // assuming tokenizer.Err() == io.EOF
		}
		if tt == html.TextToken {
			if text.Len() > 0 {
				text.WriteByte(' ')
			}
			text.Write(bytes.TrimSpace(tokenizer.Text()))
		}
		if text.Len() > 4000 {
			break
		}
	}

	return Trunc(text.String(), maxRunes)
}
