package httpserver

import (
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalMessage = "Something went wrong, please try again later"

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the error envelope. Unexpected errors are logged and
// replaced by a generic message.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	msg, ok := domain.Message(err)
	if status == http.StatusInternalServerError || !ok {
		if status == http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
			msg = internalMessage
		} else {
			msg = http.StatusText(status)
		}
	}
	abortWithMessage(c, status, msg)
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

type productView struct {
	ID          string         `json:"_id"`
	Name        string         `json:"productName"`
	Description string         `json:"productDesc"`
	Price       float64        `json:"productPrice"`
	Images      []domain.Image `json:"productImg"`
	Category    string         `json:"category"`
	Brand       string         `json:"brand"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func toProductView(p domain.Product) productView {
	images := p.Images
	if images == nil {
		images = []domain.Image{}
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       domain.PriceDecimal(p.PriceCents).InexactFloat64(),
		Images:      images,
		Category:    p.Category,
		Brand:       p.Brand,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductViews(products []domain.Product) []productView {
	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, toProductView(p))
	}
	return out
}

// cartItemView nests the product under "productId", the shape clients
// already render.
type cartItemView struct {
	Product  any     `json:"productId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type cartView struct {
	ID         string         `json:"_id,omitempty"`
	UserID     string         `json:"userId"`
	Items      []cartItemView `json:"items"`
	TotalPrice float64        `json:"totalPrice"`
	CreatedAt  *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time     `json:"updatedAt,omitempty"`
}

func toCartView(c *domain.Cart) cartView {
	items := make([]cartItemView, 0, len(c.Items))
	for _, it := range c.Items {
		var product any = it.ProductID
		if it.Product != nil {
			product = toProductView(*it.Product)
		}
		items = append(items, cartItemView{
			Product:  product,
			Quantity: it.Quantity,
			Price:    domain.PriceDecimal(it.PriceCents).InexactFloat64(),
		})
	}
	out := cartView{
		ID:         c.ID,
		UserID:     c.UserID,
		Items:      items,
		TotalPrice: domain.PriceDecimal(c.TotalCents).InexactFloat64(),
	}
	if !c.CreatedAt.IsZero() {
		created, updated := c.CreatedAt, c.UpdatedAt
		out.CreatedAt, out.UpdatedAt = &created, &updated
	}
	return out
}

// userView never carries the password hash, OTP or pending token.
type userView struct {
	ID                 string    `json:"_id"`
	FirstName          string    `json:"firstName"`
	LastName           string    `json:"lastName"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	IsVerified         bool      `json:"isVerified"`
	IsLoggedIn         bool      `json:"isLoggedIn"`
	ProfilePic         string    `json:"profilePic"`
	ProfilePicPublicID string    `json:"profilePicPublicId"`
	Address            string    `json:"address"`
	City               string    `json:"city"`
	ZipCode            string    `json:"zipCode"`
	PhoneNumber        string    `json:"phoneNumber"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toUserView(u *domain.User) userView {
	return userView{
		ID:                 u.ID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Role:               string(u.Role),
		IsVerified:         u.IsVerified,
		IsLoggedIn:         u.IsLoggedIn,
		ProfilePic:         u.ProfilePic,
		ProfilePicPublicID: u.ProfilePicPublicID,
		Address:            u.Address,
		City:               u.City,
		ZipCode:            u.ZipCode,
		PhoneNumber:        u.PhoneNumber,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
