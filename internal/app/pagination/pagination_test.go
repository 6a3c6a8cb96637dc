package pagination

import "testing"

func TestPaginate(t *testing.T) {
	tests := []struct {
		name      string
		requested int
		limit     int
		total     int
		want      Paginator
	}{
		{"first page", 1, 10, 25, Paginator{Page: 1, PagesCount: 3, Offset: 0, Limit: 10}},
		{"second page", 2, 10, 25, Paginator{Page: 2, PagesCount: 3, Offset: 10, Limit: 10}},
		{"last page", 3, 10, 25, Paginator{Page: 3, PagesCount: 3, Offset: 20, Limit: 10}},
		{"past last page", 9, 10, 25, Paginator{Page: 1, PagesCount: 3, Offset: 0, Limit: 10}},
		{"zero page", 0, 10, 25, Paginator{Page: 1, PagesCount: 3, Offset: 0, Limit: 10}},
		{"negative page", -4, 10, 25, Paginator{Page: 1, PagesCount: 3, Offset: 0, Limit: 10}},
		{"empty listing", 1, 20, 0, Paginator{Page: 1, PagesCount: 1, Offset: 0, Limit: 20}},
		{"empty listing page 2", 2, 20, 0, Paginator{Page: 1, PagesCount: 1, Offset: 0, Limit: 20}},
		{"exact multiple", 2, 10, 20, Paginator{Page: 2, PagesCount: 2, Offset: 10, Limit: 10}},
		{"one row", 1, 10, 1, Paginator{Page: 1, PagesCount: 1, Offset: 0, Limit: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(tt.requested, tt.limit, tt.total)
			if got != tt.want {
				t.Errorf("Paginate(%d, %d, %d) = %+v, want %+v", tt.requested, tt.limit, tt.total, got, tt.want)
			}
		})
	}
}

func TestPaginate_PageCountProperty(t *testing.T) {
	for limit := 1; limit <= 12; limit++ {
		for total := 0; total <= 150; total++ {
			want := total / limit
			if total%limit != 0 {
				want++
			}
			if want < 1 {
				want = 1
			}

			got := Paginate(1, limit, total)
			if got.PagesCount != want {
				t.Fatalf("limit=%d total=%d: PagesCount = %d, want %d", limit, total, got.PagesCount, want)
			}

			for requested := -1; requested <= want+2; requested++ {
				p := Paginate(requested, limit, total)
				if requested <= 1 || requested > want {
					if p.Page != 1 || p.Offset != 0 {
						t.Fatalf("limit=%d total=%d requested=%d: got %+v, want reset to page 1", limit, total, requested, p)
					}
					continue
				}
				if p.Page != requested || p.Offset != (requested-1)*limit {
					t.Fatalf("limit=%d total=%d requested=%d: got %+v", limit, total, requested, p)
				}
			}
		}
	}
}
