package query

// pageWindowSize is the number of page buttons shown at once.
const pageWindowSize = 5

// ClampPage bounds n to 1..totalPages. A non-positive totalPages counts as 1.
func ClampPage(n, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if n < 1 {
		return 1
	}
	if n > totalPages {
		return totalPages
	}
	return n
}

// PageWindow returns the page numbers to offer for navigation: every page
// when there are at most five, otherwise five consecutive pages centered on
// current and kept inside 1..totalPages.
func PageWindow(current, totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	current = ClampPage(current, totalPages)

	size := pageWindowSize
	if totalPages < size {
		size = totalPages
	}

	start := current - pageWindowSize/2
	if start > totalPages-size+1 {
		start = totalPages - size + 1
	}
	if start < 1 {
		start = 1
	}

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
