package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sugicreations/sugi-backend/internal/products"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/types"
)

type stubProductService struct {
	listInput   products.ListInput
	searchQuery string
	createInput products.CreateInput
	updateInput products.UpdateInput
	deletedID   uuid.UUID
	err         error
}

func (s *stubProductService) List(_ context.Context, input products.ListInput) (*types.Page[products.ProductDTO], error) {
	s.listInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &types.Page[products.ProductDTO]{Items: []products.ProductDTO{}}, nil
}

func (s *stubProductService) Get(_ context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: id, Name: "Pearl Drop Earrings", Stock: 4, Status: enums.StockStatusFor(4)}, nil
}

func (s *stubProductService) Search(_ context.Context, query string) ([]products.ProductDTO, error) {
	s.searchQuery = query
	return []products.ProductDTO{}, s.err
}

func (s *stubProductService) Create(_ context.Context, input products.CreateInput) (*products.ProductDTO, error) {
	s.createInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: uuid.New(), Name: input.Name, Price: input.Price}, nil
}

func (s *stubProductService) Update(_ context.Context, id uuid.UUID, input products.UpdateInput) (*products.ProductDTO, error) {
	s.updateInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: id}, nil
}

func (s *stubProductService) Delete(_ context.Context, id uuid.UUID) error {
	s.deletedID = id
	return s.err
}

func TestListProductsParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	categoryID := uuid.New()

	rec := serve(ListProducts(svc, testLogger()), newRequest(http.MethodGet,
		"/api/v1/products?q=%20gold%20&stock=LOW&categoryId="+categoryID.String()+"&limit=10&cursor=abc", "", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	got := svc.listInput
	if got.Filters.Query != "gold" || got.Filters.Stock != enums.StockFilterLow {
		t.Fatalf("unexpected filters %+v", got.Filters)
	}
	if got.Filters.CategoryID == nil || *got.Filters.CategoryID != categoryID || got.Filters.MaterialID != nil {
		t.Fatalf("unexpected taxonomy filters %+v", got.Filters)
	}
	if got.Pagination.Limit != 10 || got.Pagination.Cursor != "abc" {
		t.Fatalf("unexpected pagination %+v", got.Pagination)
	}
}

func TestListProductsRejectsBadQuery(t *testing.T) {
	cases := []string{
		"/api/v1/products?stock=plenty",
		"/api/v1/products?categoryId=nope",
		"/api/v1/products?limit=500",
	}
	for _, target := range cases {
		rec := serve(ListProducts(&stubProductService{}, testLogger()), newRequest(http.MethodGet, target, "", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", target, rec.Code)
		}
	}
}

func TestSearchProductsPassesQuery(t *testing.T) {
	svc := &stubProductService{}
	rec := serve(SearchProducts(svc, testLogger()), newRequest(http.MethodGet, "/api/v1/products/search?q=ring", "", nil))
	if rec.Code != http.StatusOK || svc.searchQuery != "ring" {
		t.Fatalf("unexpected search: code=%d query=%q", rec.Code, svc.searchQuery)
	}
}

func TestGetProduct(t *testing.T) {
	id := uuid.New()
	rec := serve(GetProduct(&stubProductService{}, testLogger()), newRequest(http.MethodGet, "/", "", map[string]string{"id": id.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var dto products.ProductDTO
	decodeData(t, rec, &dto)
	if dto.ID != id || dto.Status != enums.StockStatusLowStock {
		t.Fatalf("unexpected product %+v", dto)
	}

	rec = serve(GetProduct(&stubProductService{}, testLogger()), newRequest(http.MethodGet, "/", "", map[string]string{"id": "bad"}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id got %d", rec.Code)
	}

	missing := &stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec = serve(GetProduct(missing, testLogger()), newRequest(http.MethodGet, "/", "", map[string]string{"id": id.String()}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if e := decodeError(t, rec); e.Code != string(pkgerrors.CodeNotFound) || e.Message != "product not found" {
		t.Fatalf("unexpected error body %+v", e)
	}
}

func TestAdminCreateProduct(t *testing.T) {
	svc := &stubProductService{}
	categoryID := uuid.New()
	body := `{"name":"  Gold Hoops ","price":"129.99","stock":12,"images":["https://cdn.example.com/a.png"],"categoryId":"` + categoryID.String() + `"}`

	rec := serve(AdminCreateProduct(svc, testLogger()), newRequest(http.MethodPost, "/", body, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.createInput
	if in.Name != "Gold Hoops" || !in.Price.Equal(decimal.RequireFromString("129.99")) || in.Stock != 12 || in.CategoryID != categoryID {
		t.Fatalf("unexpected create input %+v", in)
	}
}

func TestAdminCreateProductValidation(t *testing.T) {
	cases := []string{
		`{"price":"10","stock":1,"categoryId":"` + uuid.NewString() + `"}`,
		`{"name":"Ring","price":"10","stock":-1,"categoryId":"` + uuid.NewString() + `"}`,
		`{"name":"Ring","price":"10","stock":1}`,
		`{"name":"Ring","price":"10","stock":1,"categoryId":"` + uuid.NewString() + `","sku":"x"}`,
	}
	for _, body := range cases {
		rec := serve(AdminCreateProduct(&stubProductService{}, testLogger()), newRequest(http.MethodPost, "/", body, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", body, rec.Code)
		}
	}
}

func TestAdminUpdateProductPartial(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()

	rec := serve(AdminUpdateProduct(svc, testLogger()), newRequest(http.MethodPatch, "/", `{"stock":0,"clearMaterial":true}`, map[string]string{"id": id.String()}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	in := svc.updateInput
	if in.Stock == nil || *in.Stock != 0 || !in.ClearMaterial || in.Name != nil || in.Price != nil {
		t.Fatalf("unexpected update input %+v", in)
	}
}

func TestAdminDeleteProduct(t *testing.T) {
	svc := &stubProductService{}
	id := uuid.New()
	rec := serve(AdminDeleteProduct(svc, testLogger()), newRequest(http.MethodDelete, "/", "", map[string]string{"id": id.String()}))
	if rec.Code != http.StatusNoContent || svc.deletedID != id {
		t.Fatalf("unexpected delete: code=%d id=%s", rec.Code, svc.deletedID)
	}
}
