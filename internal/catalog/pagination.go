package catalog

import "github.com/safar/delivery-admin/internal/models"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type OffsetPage struct {
	Items      []models.Product `json:"items"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Paginate slices products into 1-based pages. Out-of-range values fall back
// to the first page and DefaultPageSize; a page past the end is empty.
func Paginate(products []models.Product, page, pageSize int) OffsetPage {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	total := len(products)
	// Compare before multiplying so a huge page cannot overflow.
	offset := total
	if page-1 <= total/pageSize {
		offset = min((page-1)*pageSize, total)
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	items := make([]models.Product, 0, end-offset)
	items = append(items, products[offset:end]...)

	return OffsetPage{
		Items:      items,
		Total:      int64(total),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}
}
