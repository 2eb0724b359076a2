package xmlparse

import (
	"bufio"
	"io"
	"regexp"

	"golang.org/x/net/html/charset"
)

// xmlDeclEncoding extracts the encoding pseudo-attribute from a leading
// "<?xml ... encoding="..." ...?>" declaration, if present.
var xmlDeclEncoding = regexp.MustCompile(`(?i)^<\?xml\s[^>]*\bencoding\s*=\s*["']([^"']+)["']`)

// DecodeReader wraps r with a transform that converts its bytes to UTF-8,
// sniffing the source encoding from the XML declaration's encoding
// pseudo-attribute (falling back to content-based detection via
// golang.org/x/net/html/charset when no declaration is present).
func DecodeReader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(512)
	if err != nil && err != io.EOF {
		return nil, err
	}

	if m := xmlDeclEncoding.FindSubmatch(peek); m != nil {
		enc, name := charset.Lookup(string(m[1]))
		if enc != nil {
			_ = name
			return enc.NewDecoder().Reader(br), nil
		}
	}

	out, err := charset.NewReader(br, "")
	if err != nil {
		return br, nil
	}
	return out, nil
}
