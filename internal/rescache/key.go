// Package rescache caches pages of remote collections keyed by resource
// kind, page, limit, search text and scope, with single-flight fetches,
// per-kind invalidation and generation checks that keep slow responses from
// overwriting newer ones.
package rescache

import (
	"errors"
	"fmt"
	"strconv"
)

// KeyVersion prefixes rendered keys so a format change never collides with
// keys from an older build.
const KeyVersion = "v1"

// Kind tags a remote entity type. It scopes invalidation and selects the
// transport call that fills an entry.
type Kind string

const (
	KindUsers        Kind = "users"
	KindSeasons      Kind = "seasons"
	KindStockReturns Kind = "stock_returns"
	KindOrders       Kind = "orders"
)

// ErrInvalidKey indicates a key that can never identify a page.
var ErrInvalidKey = errors.New("rescache: invalid key")

// Key identifies one cached page. Keys are equal iff every field is equal.
type Key struct {
	Kind    Kind
	Page    int
	Limit   int
	Search  string
	ScopeID string // Active season for season-scoped kinds; "" otherwise.
}

// Validate reports whether k can identify a page.
func (k Key) Validate() error {
	switch {
	case k.Kind == "":
		return fmt.Errorf("%w: empty kind", ErrInvalidKey)
	case k.Page < 1:
		return fmt.Errorf("%w: page %d", ErrInvalidKey, k.Page)
	case k.Limit < 1:
		return fmt.Errorf("%w: limit %d", ErrInvalidKey, k.Limit)
	}
	return nil
}

// String renders k unambiguously; search and scope are quoted so that no
// two distinct keys share a rendering.
func (k Key) String() string {
	return KeyVersion + ":" + string(k.Kind) +
		":p" + strconv.Itoa(k.Page) +
		":l" + strconv.Itoa(k.Limit) +
		":q" + strconv.Quote(k.Search) +
		":s" + strconv.Quote(k.ScopeID)
}

// Page is one fetched page of records.
type Page[R any] struct {
	Records    []R
	TotalPages int
	TotalItems int
	Status     string
}
