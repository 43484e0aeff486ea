package httpserver

import (
	"context"
	"net/http"

	"storefront/internal/domain"
	productsvc "storefront/internal/service/product"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type productService interface {
	Create(ctx context.Context, in productsvc.Input, uploads []domain.Upload) (*domain.Product, error)
	List(ctx context.Context, q productsvc.ListQuery) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.Input, uploads []domain.Upload) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

type facetService interface {
	Facets(ctx context.Context) (*domain.Facets, error)
}

type productHandlers struct {
	svc    productService
	facets facetService
	logger *zap.Logger
}

func (h *productHandlers) list(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context(), productsvc.ListQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		MinPrice: c.Query("minPrice"),
		MaxPrice: c.Query("maxPrice"),
		Sort:     c.Query("sort"),
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": toProductViews(products)})
}

// facetList feeds the category and brand filters of the shop page.
func (h *productHandlers) facetList(c *gin.Context) {
	f, err := h.facets.Facets(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "categories": f.Categories, "brands": f.Brands})
}

func (h *productHandlers) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("productId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "product": toProductView(*p)})
}

func (h *productHandlers) create(c *gin.Context) {
	uploads, done, err := formUploads(c, "files", productsvc.MaxImages)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer done()

	p, err := h.svc.Create(c.Request.Context(), productInput(c), uploads)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Product added successfully",
		"product": toProductView(*p),
	})
}

func (h *productHandlers) update(c *gin.Context) {
	uploads, done, err := formUploads(c, "files", productsvc.MaxImages)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer done()

	p, err := h.svc.Update(c.Request.Context(), c.Param("productId"), productInput(c), uploads)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product updated successfully",
		"product": toProductView(*p),
	})
}

func (h *productHandlers) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("productId")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Product deleted successfully"})
}

func productInput(c *gin.Context) productsvc.Input {
	return productsvc.Input{
		Name:        c.PostForm("productName"),
		Description: c.PostForm("productDesc"),
		Price:       c.PostForm("productPrice"),
		Category:    c.PostForm("category"),
		Brand:       c.PostForm("brand"),
	}
}
