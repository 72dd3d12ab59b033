package mapper

import (
	"booking-insights/modules/booking/dto"
)

// ComputePagination derives paging metadata from take/skip. A zero page size
// yields page 0 of 1 rather than dividing by zero.
func ComputePagination(totalItems, returnedItems int, q *dto.BookingQuery) dto.Pagination {
	take := 0
	skip := 0
	if q != nil {
		if q.Take != nil && *q.Take > 0 {
			take = *q.Take
		}
		if q.Skip != nil && *q.Skip >= 0 {
			skip = *q.Skip
		}
	}

	itemsPerPage := take
	if itemsPerPage == 0 {
		switch {
		case returnedItems > 0:
			itemsPerPage = returnedItems
		case totalItems > 0:
			itemsPerPage = totalItems
		}
	}

	divisor := itemsPerPage
	if divisor <= 0 {
		divisor = 1
	}

	totalPages := (totalItems + divisor - 1) / divisor
	if totalPages < 1 {
		totalPages = 1
	}

	remaining := totalItems - (skip + returnedItems)
	if remaining < 0 {
		remaining = 0
	}

	return dto.Pagination{
		TotalItems:      totalItems,
		RemainingItems:  remaining,
		ReturnedItems:   returnedItems,
		ItemsPerPage:    itemsPerPage,
		CurrentPage:     skip / divisor,
		TotalPages:      totalPages,
		HasNextPage:     skip+returnedItems < totalItems,
		HasPreviousPage: skip > 0,
	}
}
