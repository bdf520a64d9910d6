package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// perPage is the page size requested from list endpoints (GitHub's max).
const perPage = 100

// maxPages bounds how many pages a single listing follows.
const maxPages = 50

// collect walks a paginated endpoint whose pages are JSON objects of type P
// and gathers the items extracted by items. It follows the Link header's
// rel="next" URL until there is none. The result is never nil.
//
// PAGINATION FLOW:
// 1. Request baseURL+path with per_page set by the caller.
// 2. Decode the page and append its items.
// 3. Read Link: <...?page=2>; rel="next" from the response headers.
// 4. Repeat with that absolute URL until no next link remains.
//
// WHY CHECK THE NEXT URL'S HOST?
// Every request carries the caller's GitHub token in Authorization. The
// next URL comes from a response header, so a proxy or a misbehaving server
// could point it anywhere. Following it blindly would hand the token to
// that host. Links must keep the scheme and host of the configured base URL.
func collect[P any, T any](ctx context.Context, c *Client, cred credential, path string, items func(*P) []T) ([]T, error) {
	all := []T{}
	next := c.baseURL + path
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return all, fmt.Errorf("github: %s: more than %d pages", path, maxPages)
		}

		body, header, err := c.doURL(ctx, cred, http.MethodGet, next, nil)
		if err != nil {
			return all, err
		}

		var p P
		if err := json.Unmarshal(body, &p); err != nil {
			return all, fmt.Errorf("github: decoding page of %s: %w", path, err)
		}
		all = append(all, items(&p)...)

		next = parseLinkNext(header.Get("Link"))
		if next != "" {
			if err := c.checkSameOrigin(next); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// checkSameOrigin rejects a pagination link whose scheme or host differs
// from the client's base URL.
func (c *Client) checkSameOrigin(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("github: invalid pagination link %q: %w", rawURL, err)
	}
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return fmt.Errorf("github: refusing to follow pagination link to %s://%s", u.Scheme, u.Host)
	}
	return nil
}

// parseLinkNext extracts the URL with rel="next" from an RFC 5988 Link
// header. Returns empty string if no next link is present.
//
// Format: <https://api.github.com/...?page=2>; rel="next", <...>; rel="last"
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.SplitN(strings.TrimSpace(part), ";", 2)
		if len(segments) != 2 {
			continue
		}
		urlPart := strings.TrimSpace(segments[0])
		if !strings.Contains(segments[1], `rel="next"`) {
			continue
		}
		if strings.HasPrefix(urlPart, "<") && strings.HasSuffix(urlPart, ">") {
			return urlPart[1 : len(urlPart)-1]
		}
	}
	return ""
}
