package pkg

import "strconv"

// Page 一页有序列表的视图，页码从 1 开始
type Page struct {
	Number int   `json:"number"`
	Size   int   `json:"size"`
	Total  int64 `json:"total"`
	Pages  int   `json:"pages"`
}

// NewPage 根据总数计算并收敛页码：越界请求落到最近的合法页
// 空列表也有一个空页，保证 Number 始终合法
func NewPage(number, size int, total int64) Page {
	if size <= 0 {
		size = 10
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}
	return Page{Number: number, Size: size, Total: total, Pages: pages}
}

// ParsePageNumber 解析 query 中的页码，缺省或非法时返回 1
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

func (p Page) HasNext() bool {
	return p.Number < p.Pages
}

func (p Page) HasPrev() bool {
	return p.Number > 1
}
