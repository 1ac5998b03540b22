package tcgscrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/coghost/xutil"
)

var innerWhitespace = regexp.MustCompile(`\s+`)

// FilenameFromURL takes input as a escaped url & outputs filename from it (unescaped - normal one)
func FilenameFromURL(urlstr string) (string, error) {
	u, err := url.Parse(urlstr)
	if err != nil {
		return "", err
	}

	return xutil.RefineString(u.Scheme + "_" + u.Host), nil
}

func isMatchingFilter(fs []*regexp.Regexp, d []byte) bool {
	for _, r := range fs {
		if r.Match(d) {
			return true
		}
	}

	return false
}

func collapseSpace(s string) string {
	return strings.TrimSpace(innerWhitespace.ReplaceAllString(s, " "))
}
