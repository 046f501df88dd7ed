package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Params holds the request parameters that identify one upstream call.
type Params map[string]string

// BuildKey renders the canonical cache key for a namespaced operation.
//
// Format: <namespace>:<prefix>:<k1>=<v1>&<k2>=<v2>
// Parameter names are sorted ascending, so every insertion order produces
// the same key, across processes and across tiers. No parameters yields
// "<namespace>:<prefix>:". Names and values are URL-escaped so distinct
// parameter sets can never render to the same key.
func BuildKey(namespace, prefix string, params Params) string {
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte(':')
	b.WriteString(url.QueryEscape(prefix))
	b.WriteByte(':')

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}
	return b.String()
}

// keyPrefix renders the key prefix shared by every entry of one operation
// class. ClearPrefix and persistent listings match on this.
func keyPrefix(namespace, prefix string) string {
	return namespace + ":" + url.QueryEscape(prefix) + ":"
}

// namespacePrefix renders the key prefix shared by every entry a namespace
// owns. Clear and persistent reloads match on this.
func namespacePrefix(namespace string) string {
	return namespace + ":"
}
