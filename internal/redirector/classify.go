package redirector

import (
	"strings"

	"soapmirror/internal/httputil"
)

// CacheToken prefixes GetPlayer answers that point into the local library.
const CacheToken = "USECACHESERVER"

const cacheSeparator = "::"

// ResolveTarget turns a GetPlayer answer into the URL the page should load.
// A cache token "USECACHESERVER<anything>::<id>" maps to
// "<mirror>/GetVideo?p=<id>" with id URI-component encoded; any text
// containing both "http" and "://" is returned unchanged. ok is false for
// everything else, including a cache token with no separator.
func ResolveTarget(mirror, answer string) (target string, ok bool) {
	if strings.HasPrefix(answer, CacheToken) {
		_, id, found := strings.Cut(answer, cacheSeparator)
		if !found {
			return "", false
		}
		return strings.TrimRight(mirror, "/") + "/GetVideo?p=" + httputil.EncodeURIComponent(id), true
	}

	if strings.Contains(answer, "http") && strings.Contains(answer, "://") {
		return answer, true
	}

	return "", false
}
