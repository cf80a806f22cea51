package domain

// PaginatedResult 单页结果，每次请求临时构造
type PaginatedResult[T any] struct {
	Records      []T   `json:"records"`
	PageNumber   int   `json:"pageNumber"`
	PageSize     int   `json:"pageSize"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

// TotalPages = ceil(total / size)
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// MapPage 转换记录类型，分页信息保持不变
func MapPage[T, R any](p *PaginatedResult[T], fn func(T) R) *PaginatedResult[R] {
	out := &PaginatedResult[R]{
		Records:      make([]R, 0, len(p.Records)),
		PageNumber:   p.PageNumber,
		PageSize:     p.PageSize,
		TotalRecords: p.TotalRecords,
		TotalPages:   p.TotalPages,
	}
	for _, r := range p.Records {
		out.Records = append(out.Records, fn(r))
	}
	return out
}
