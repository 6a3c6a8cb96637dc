package pagination_test

import (
	"fmt"

	"github.com/achufistov/shortypanel/internal/app/pagination"
)

// ExamplePaginate shows how a requested page past the end falls back to the first page.
func ExamplePaginate() {
	for _, requested := range []int{1, 2, 9} {
		p := pagination.Paginate(requested, 10, 25)
		fmt.Printf("page=%d pages=%d offset=%d\n", p.Page, p.PagesCount, p.Offset)
	}

	// Output:
	// page=1 pages=3 offset=0
	// page=2 pages=3 offset=10
	// page=1 pages=3 offset=0
}
