package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	products "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	maxTitleLen = 200
	maxTagLen   = 50
)

type createProductRequest struct {
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"imageUrl"`
	Thumbnail          string          `json:"thumbnail"`
	Brand              string          `json:"brand"`
	Category           string          `json:"category"`
	Tags               []string        `json:"tags"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage int             `json:"discountPercentage"`
	Stock              int             `json:"stock"`
}

func (req createProductRequest) toInput() products.CreateProductInput {
	return products.CreateProductInput{
		Title:              validators.SanitizeString(req.Title, maxTitleLen),
		Description:        validators.SanitizeString(req.Description, 0),
		ImageURL:           validators.SanitizeString(req.ImageURL, 0),
		Thumbnail:          validators.SanitizeString(req.Thumbnail, 0),
		Brand:              validators.SanitizeString(req.Brand, maxTitleLen),
		Category:           validators.SanitizeString(req.Category, maxTitleLen),
		Tags:               validators.SanitizeStrings(req.Tags, maxTagLen),
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		Stock:              req.Stock,
	}
}

// updateProductRequest accepts `discount` as an alias of discountPercentage;
// the back-office form sends the short name.
type updateProductRequest struct {
	Title              *string          `json:"title"`
	Description        *string          `json:"description"`
	ImageURL           *string          `json:"imageUrl"`
	Thumbnail          *string          `json:"thumbnail"`
	Brand              *string          `json:"brand"`
	Category           *string          `json:"category"`
	Tags               *[]string        `json:"tags"`
	Price              *decimal.Decimal `json:"price"`
	DiscountPercentage *int             `json:"discountPercentage"`
	Discount           *int             `json:"discount"`
	Stock              *int             `json:"stock"`
}

func (req updateProductRequest) toInput() products.UpdateProductInput {
	in := products.UpdateProductInput{
		Title:              trimmed(req.Title, maxTitleLen),
		Description:        trimmed(req.Description, 0),
		ImageURL:           trimmed(req.ImageURL, 0),
		Thumbnail:          trimmed(req.Thumbnail, 0),
		Brand:              trimmed(req.Brand, maxTitleLen),
		Category:           trimmed(req.Category, maxTitleLen),
		Price:              req.Price,
		DiscountPercentage: req.DiscountPercentage,
		Stock:              req.Stock,
	}
	if in.DiscountPercentage == nil {
		in.DiscountPercentage = req.Discount
	}
	if req.Tags != nil {
		tags := validators.SanitizeStrings(*req.Tags, maxTagLen)
		in.Tags = &tags
	}
	return in
}

func trimmed(v *string, maxLen int) *string {
	if v == nil {
		return nil
	}
	s := validators.SanitizeString(*v, maxLen)
	return &s
}

func AdminProductsList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"products": list})
	}
}

func AdminProductGet(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return ProductDetail(svc, logg)
}

func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		var body createProductRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, types.Payload{"product": product})
	}
}

func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateProductRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"product": product})
	}
}

func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		id, err := validators.ParseURLID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"message": "product deleted"})
	}
}

// AdminProductsLowStock lists in-stock products at or under the restock threshold.
func AdminProductsLowStock(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}
		list, err := svc.LowStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"products": list})
	}
}
