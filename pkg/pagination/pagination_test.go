package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != 1 || p.PageSize != DefaultPageSize {
		t.Errorf("expected page=1 pageSize=%d, got %+v", DefaultPageSize, p)
	}
}

func TestFromContext_Explicit(t *testing.T) {
	p := paramsFor(t, "page=3&pageSize=10")
	if p.Page != 3 || p.PageSize != 10 {
		t.Errorf("unexpected params: %+v", p)
	}
	if p.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", p.Offset())
	}
}

func TestFromContext_ClampsAndSanitizes(t *testing.T) {
	p := paramsFor(t, "page=-1&pageSize=9999")
	if p.Page != 1 {
		t.Errorf("expected page clamped to 1, got %d", p.Page)
	}
	if p.PageSize != MaxPageSize {
		t.Errorf("expected pageSize clamped to %d, got %d", MaxPageSize, p.PageSize)
	}
}

func TestTotalPages(t *testing.T) {
	p := Params{Page: 1, PageSize: 20}
	cases := []struct{ total, pages int }{
		{0, 1}, {1, 1}, {20, 1}, {21, 2}, {40, 2}, {41, 3},
	}
	for _, tc := range cases {
		if got := p.TotalPages(tc.total); got != tc.pages {
			t.Errorf("TotalPages(%d): expected %d, got %d", tc.total, tc.pages, got)
		}
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]string{"a", "b"}, 41, Params{Page: 2, PageSize: 20})
	if resp.Total != 41 || resp.Page != 2 || resp.PageSize != 20 || resp.TotalPages != 3 {
		t.Errorf("unexpected response: %+v", resp)
	}
}
