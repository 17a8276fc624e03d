package provider

import (
	"net/url"
	"strings"
)

// Filters mirrors the user-facing filter toggles carried on every provider
// request.
type Filters struct {
	ExcludeAdditional  bool
	ExcludeThirdParty  bool
	ThirdPartyPackages []string
}

// Query describes one graph-data request. An empty Root asks for the union
// graph across all roots.
type Query struct {
	Root    string
	Filters Filters
}

// Encode renders the query as provider URL parameters. When the third-party
// filter is active the explicit package list is always carried, so the
// provider excludes precisely those packages; callers are responsible for
// populating the list with every known package id when the user has made no
// sub-selection.
func (q Query) Encode() url.Values {
	v := q.Filters.encode()
	root := q.Root
	if root == "" {
		root = "all"
	}
	v.Set("root", root)
	return v
}

func (f Filters) encode() url.Values {
	v := url.Values{}
	if f.ExcludeAdditional {
		v.Set("excludeAdditional", "true")
	}
	if f.ExcludeThirdParty {
		v.Set("excludeThirdParty", "true")
		if len(f.ThirdPartyPackages) > 0 {
			v.Set("thirdPartyPackages", strings.Join(f.ThirdPartyPackages, ","))
		}
	}
	return v
}

// CacheKey is a stable string identity for the query, used by the snapshot
// cache.
func (q Query) CacheKey() string {
	return q.Encode().Encode()
}
