package catalog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"StudioMemories/internal/admin"
	"StudioMemories/pkg/kit"
)

// Images arrive inline as data URIs, so bodies are allowed to be large.
const maxBodyBytes = 16 << 20

type Server struct {
	Store *Store
	Admin *admin.Server
	Log   *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Get("/banners", s.listBanners)
	r.Get("/categories", s.listCategories)
	r.Get("/featured", s.featured)

	if s.Admin != nil {
		s.Admin.Register(r)

		r.Group(func(ar chi.Router) {
			ar.Use(s.Admin.RequireSession)

			ar.Post("/admin/products", s.createProduct)
			ar.Patch("/admin/products/{id}", s.updateProduct)
			ar.Delete("/admin/products/{id}", s.deleteProduct)
			ar.Post("/admin/products/{id}/trending", s.toggleTrending)
			ar.Post("/admin/products/{id}/bestseller", s.toggleBestSeller)

			ar.Post("/admin/banners", s.createBanner)
			ar.Delete("/admin/banners/{id}", s.deleteBanner)

			ar.Post("/admin/categories", s.createCategory)
			ar.Delete("/admin/categories/{id}", s.deleteCategory)

			ar.Post("/admin/refresh", s.refresh)
		})
	}

	return r
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kit.WriteJSON(w, http.StatusOK, s.Store.FilterProducts(ProductFilter{
		Query:    q.Get("q"),
		Category: q.Get("category"),
		Featured: q.Get("featured"),
	}))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, found := s.Store.Product(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) listBanners(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.HeroBanners())
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, s.Store.ShopCategories())
}

type featuredResp struct {
	TrendingProductIDs   []int64   `json:"trendingProductIds"`
	BestSellerProductIDs []int64   `json:"bestSellerProductIds"`
	Trending             []Product `json:"trending"`
	BestSellers          []Product `json:"bestSellers"`
}

func (s *Server) featured(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, featuredResp{
		TrendingProductIDs:   s.Store.TrendingProductIDs(),
		BestSellerProductIDs: s.Store.BestSellerProductIDs(),
		Trending:             s.Store.TrendingProducts(),
		BestSellers:          s.Store.BestSellerProducts(),
	})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in ProductInput
	if !kit.DecodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	switch {
	case in.Name == "":
		kit.WriteError(w, r, http.StatusBadRequest, "product name is required", nil)
		return
	case in.Price <= 0:
		kit.WriteError(w, r, http.StatusBadRequest, "valid price is required", nil)
		return
	case in.MainImage == "":
		kit.WriteError(w, r, http.StatusBadRequest, "main product image is required", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, s.Store.AddProduct(r.Context(), in))
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var u ProductUpdate
	if !kit.DecodeJSON(w, r, &u, maxBodyBytes) {
		return
	}

	p, found := s.Store.UpdateProduct(r.Context(), id, u)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	s.Store.DeleteProduct(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

type membershipResp struct {
	ID     int64 `json:"id"`
	Member bool  `json:"member"`
}

func (s *Server) toggleTrending(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, membershipResp{ID: id, Member: s.Store.ToggleTrending(r.Context(), id)})
}

func (s *Server) toggleBestSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, membershipResp{ID: id, Member: s.Store.ToggleBestSeller(r.Context(), id)})
}

func (s *Server) createBanner(w http.ResponseWriter, r *http.Request) {
	var in HeroBannerInput
	if !kit.DecodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "banner title is required", nil)
		return
	}
	if in.Image == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "banner image is required", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, s.Store.AddHeroBanner(r.Context(), in))
}

func (s *Server) deleteBanner(w http.ResponseWriter, r *http.Request) {
	s.Store.DeleteHeroBanner(r.Context(), EntryID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var in ShopCategoryInput
	if !kit.DecodeJSON(w, r, &in, maxBodyBytes) {
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "category name is required", nil)
		return
	}
	if in.Image == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "category image is required", nil)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, s.Store.AddShopCategory(r.Context(), in))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.Store.DeleteShopCategory(r.Context(), EntryID(chi.URLParam(r, "id")))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.Store.RefreshAll(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad product id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
