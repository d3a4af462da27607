// Package pager computes page-number windows and page-size limits for
// paginated list views.
package pager

import (
	"sort"
	"strconv"
)

// SmallTotal is the largest page count that is shown in full, without ellipses.
const SmallTotal = 7

// Item is one element of a page window: either a page number or an ellipsis.
type Item struct {
	Page     int
	Ellipsis bool
}

// EllipsisLabel is rendered in place of an elided run of pages.
const EllipsisLabel = "…"

// Window returns the page controls to show for current out of total pages.
// current is clamped to [1, total]. For total <= SmallTotal every page is
// listed. Otherwise the first page, the last page and current-1..current+1
// are listed; a single missing page is shown as its number and a longer gap
// collapses into one ellipsis.
func Window(current, total int) []Item {
	if total <= 0 {
		return nil
	}
	current = clamp(current, 1, total)

	if total <= SmallTotal {
		items := make([]Item, total)
		for i := range items {
			items[i] = Item{Page: i + 1}
		}
		return items
	}

	pages := anchorPages(current, total)

	items := make([]Item, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		switch gap := p - prev - 1; {
		case prev == 0 || gap == 0:
		case gap == 1:
			items = append(items, Item{Page: prev + 1})
		default:
			items = append(items, Item{Ellipsis: true})
		}
		items = append(items, Item{Page: p})
		prev = p
	}
	return items
}

// anchorPages returns the sorted, de-duplicated pages that must always be shown.
func anchorPages(current, total int) []int {
	seen := make(map[int]bool, 5)
	var pages []int
	for _, p := range []int{1, current - 1, current, current + 1, total} {
		if p < 1 || p > total || seen[p] {
			continue
		}
		seen[p] = true
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// Labels renders a window as display labels. The current page is bracketed.
func Labels(items []Item, current int) []string {
	labels := make([]string, len(items))
	for i, it := range items {
		switch {
		case it.Ellipsis:
			labels[i] = EllipsisLabel
		case it.Page == current:
			labels[i] = "[" + strconv.Itoa(it.Page) + "]"
		default:
			labels[i] = strconv.Itoa(it.Page)
		}
	}
	return labels
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
