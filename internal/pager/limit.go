package pager

// LimitConfig configures page size normalization.
type LimitConfig struct {
	Default int
	Max     int
}

// ClampLimit applies defaults and limits for page sizes.
func ClampLimit(limit int, cfg LimitConfig) int {
	if limit <= 0 {
		limit = cfg.Default
	}
	if cfg.Max > 0 && limit > cfg.Max {
		limit = cfg.Max
	}
	if limit <= 0 {
		limit = 1
	}
	return limit
}

// TotalPages returns how many pages of size limit are needed for items.
// An empty result set still has one (empty) page.
func TotalPages(items, limit int) int {
	if limit <= 0 || items <= 0 {
		return 1
	}
	return (items + limit - 1) / limit
}

// ClampPage keeps page inside [1, total].
func ClampPage(page, total int) int {
	if total < 1 {
		total = 1
	}
	return clamp(page, 1, total)
}
