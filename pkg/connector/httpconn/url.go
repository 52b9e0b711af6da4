package httpconn

import (
	"net/url"
	"strings"
)

// joinURL implements §4.7's URL composition rule: an absolute path (leading
// "/") replaces the base's path entirely; a relative path is appended with
// a single "/" separator. Percent-encoding of special characters is
// delegated to net/url's own escaping on parse/String.
func joinURL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(path, "/") {
		u.Path = path
	} else {
		basePath := strings.TrimSuffix(u.Path, "/")
		u.Path = basePath + "/" + path
	}
	return u.String(), nil
}

// mergeQuery adds each source's query parameters to those already in
// rawURL. The result is encoded by url.Values.Encode, so keys come out
// sorted by name, not in insertion order; for a repeated key the values
// keep their order (existing first, then each source in turn).
func mergeQuery(rawURL string, sources ...map[string][]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for _, src := range sources {
		for k, values := range src {
			for _, v := range values {
				q.Add(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
