// Package keys maps relative site paths to object keys and back.
package keys

import "strings"

// Normalize joins prefix and path into an object key. Backslashes become
// forward slashes and the join never produces a doubled or leading separator.
func Normalize(prefix, path string) string {
	path = strings.TrimLeft(slash(path), "/")
	prefix = strings.Trim(slash(prefix), "/")
	if prefix == "" {
		return path
	}
	return prefix + "/" + path
}

// Relative strips prefix from key. It returns false when key does not live
// under prefix.
func Relative(prefix, key string) (string, bool) {
	prefix = strings.Trim(slash(prefix), "/")
	if prefix == "" {
		return key, key != ""
	}
	rel, ok := strings.CutPrefix(key, prefix+"/")
	if !ok || rel == "" {
		return "", false
	}
	return rel, true
}

// ListPrefix returns the prefix to list a bucket with so that only keys
// under prefix are returned.
func ListPrefix(prefix string) string {
	prefix = strings.Trim(slash(prefix), "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

func slash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}
