package extractor

import (
	"net/http"
	"strings"
)

// Credential is the opaque session supplied by the host environment: the
// cookies set for the upstream domain. The extractor never inspects values.
type Credential struct {
	Cookies []*http.Cookie
}

// ParseCookieHeader reads a raw `Cookie` header value ("a=1; b=2").
func ParseCookieHeader(header string) Credential {
	header = strings.TrimSpace(header)
	if header == "" {
		return Credential{}
	}
	req := &http.Request{Header: http.Header{"Cookie": {header}}}
	return Credential{Cookies: req.Cookies()}
}

func (c Credential) Empty() bool {
	return len(c.Cookies) == 0
}

// Names lists cookie names for logging; values are never logged.
func (c Credential) Names() []string {
	names := make([]string, 0, len(c.Cookies))
	for _, ck := range c.Cookies {
		names = append(names, ck.Name)
	}
	return names
}

func (c Credential) apply(req *http.Request) {
	for _, ck := range c.Cookies {
		req.AddCookie(ck)
	}
}
