package image

import (
	"net/url"

	"github.com/tidwall/gjson"
)

// outputKeys are the object fields searched, in order, for an image location.
var outputKeys = []string{"image_url", "url", "image", "images", "output", "result"}

// extractURL finds the first http(s) URL in a job output, which providers shape
// as a bare string, a list, or an object keyed by one of outputKeys.
func extractURL(result gjson.Result) string {
	switch {
	case !result.Exists():
		return ""
	case result.Type == gjson.String:
		if isHTTPURL(result.Str) {
			return result.Str
		}
		return ""
	case result.IsArray():
		for _, item := range result.Array() {
			if u := extractURL(item); u != "" {
				return u
			}
		}
	case result.IsObject():
		for _, key := range outputKeys {
			if u := extractURL(result.Get(key)); u != "" {
				return u
			}
		}
	}
	return ""
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "https" || u.Scheme == "http"
}
