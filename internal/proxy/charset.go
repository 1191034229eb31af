package proxy

import (
	"fmt"
	"mime"
	"regexp"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DefaultCharset is what netkeiba pages are served in when nothing says otherwise
const DefaultCharset = "euc-jp"

// only the head of a document is searched for a <meta> charset
const sniffLen = 1024

var metaCharset = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-z0-9_\-:.]+)`)

// DetectCharset picks the charset of body from the Content-Type header,
// then a <meta> declaration, then fallback.
func DetectCharset(contentType string, body []byte, fallback string) string {
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if cs := strings.TrimSpace(params["charset"]); cs != "" {
				return strings.ToLower(cs)
			}
		}
	}

	head := body
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if m := metaCharset.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}
	return strings.ToLower(fallback)
}

// LookupEncoding resolves a WHATWG charset label
func LookupEncoding(label string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	return enc, nil
}

// ToUTF8 decodes body from charset. An unknown charset is decoded as
// fallback, and an unknown fallback as EUC-JP.
func ToUTF8(body []byte, charset, fallback string) ([]byte, string, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		charset = fallback
		enc, err = LookupEncoding(fallback)
		if err != nil {
			charset, enc = DefaultCharset, japanese.EUCJP
		}
	}

	if name, err := htmlindex.Name(enc); err == nil {
		charset = name
	}
	if charset == "utf-8" {
		return body, charset, nil
	}

	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return nil, charset, fmt.Errorf("decode %s: %w", charset, err)
	}
	return out, charset, nil
}
