package model

// PageItem is one entry of a pager: a page number or a gap.
type PageItem struct {
	Number int  `json:"number,omitempty"`
	Gap    bool `json:"gap,omitempty"`
}

const pageWindow = 2

func TotalPages(totalCount, limit int) int {
	if totalCount <= 0 || limit <= 0 {
		return 0
	}
	return (totalCount + limit - 1) / limit
}

// PageItems lists the first page, the last page and a window of two pages on
// either side of current, with gaps where pages are skipped. No pager is
// shown for a single page.
func PageItems(current, totalPages int) []PageItem {
	if totalPages <= 1 {
		return nil
	}

	items := []PageItem{{Number: 1}}
	if current-pageWindow > 2 {
		items = append(items, PageItem{Gap: true})
	}
	for i := max(2, current-pageWindow); i <= min(totalPages-1, current+pageWindow); i++ {
		items = append(items, PageItem{Number: i})
	}
	if current+pageWindow < totalPages-1 {
		items = append(items, PageItem{Gap: true})
	}
	return append(items, PageItem{Number: totalPages})
}

// ShowingRange returns the 1-based positions of the first and last item on
// the page, or zeros when the page is empty.
func ShowingRange(page, limit, totalCount int) (from, to int) {
	from = (page-1)*limit + 1
	to = min(page*limit, totalCount)
	if from > to {
		return 0, 0
	}
	return from, to
}
