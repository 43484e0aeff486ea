package httpserver

import (
	"context"
	"net/http"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type cartService interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Add(ctx context.Context, userID, productID string) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID, productID, change string) (*domain.Cart, error)
	Remove(ctx context.Context, userID, productID string) (*domain.Cart, error)
}

type cartHandlers struct {
	svc    cartService
	logger *zap.Logger
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Type      string `json:"type"`
}

func (h *cartHandlers) get(c *gin.Context) {
	u, _ := currentUser(c)
	cart, err := h.svc.Get(c.Request.Context(), u.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": toCartView(cart)})
}

func (h *cartHandlers) add(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	cart, err := h.svc.Add(c.Request.Context(), u.ID, req.ProductID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Product added to cart successfully",
		"cart":    toCartView(cart),
	})
}

func (h *cartHandlers) update(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	cart, err := h.svc.UpdateQuantity(c.Request.Context(), u.ID, req.ProductID, req.Type)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": toCartView(cart)})
}

func (h *cartHandlers) remove(c *gin.Context) {
	req, ok := h.bind(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	cart, err := h.svc.Remove(c.Request.Context(), u.ID, req.ProductID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cart": toCartView(cart)})
}

func (h *cartHandlers) bind(c *gin.Context) (cartItemRequest, bool) {
	var req cartItemRequest
	ok := bindJSON(c, &req)
	return req, ok
}
