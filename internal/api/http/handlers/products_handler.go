package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jende/inventory-service/internal/api/dto"
	"github.com/jende/inventory-service/internal/service"
	apperrors "github.com/jende/inventory-service/pkg/util"
)

// ProductsHandler exposes inventory CRUD and the PDF report.
type ProductsHandler struct {
	products *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(productService *service.ProductService) *ProductsHandler {
	return &ProductsHandler{products: productService}
}

// List handles GET /api/productos.
func (h *ProductsHandler) List(c *fiber.Ctx) error {
	products, err := h.products.ListProducts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ProductsFromDomain(products))
}

// Create handles POST /api/productos (multipart).
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	input := service.ProductCreateInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		Photo:       formFile(c, "photo"),
	}

	price, err := parseFloatField(c.FormValue("price"), "price")
	if err != nil {
		return err
	}
	input.Price = price

	stock, err := parseIntField(c.FormValue("stock"), "stock")
	if err != nil {
		return err
	}
	input.Stock = stock

	product, err := h.products.CreateProduct(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.ProductFromDomain(product))
}

// Update handles PUT /api/productos/:id (multipart). Only fields present in
// the form are changed.
func (h *ProductsHandler) Update(c *fiber.Ctx) error {
	input := service.ProductUpdateInput{
		Name:        formString(c, "name"),
		Description: formString(c, "description"),
		Photo:       formFile(c, "photo"),
	}

	if raw := formString(c, "price"); raw != nil {
		price, err := parseFloatField(*raw, "price")
		if err != nil {
			return err
		}
		input.Price = price
	}
	if raw := formString(c, "stock"); raw != nil {
		stock, err := parseIntField(*raw, "stock")
		if err != nil {
			return err
		}
		input.Stock = stock
	}

	product, err := h.products.UpdateProduct(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.ProductFromDomain(product))
}

// Delete handles DELETE /api/productos/:id.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	if err := h.products.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "producto eliminado correctamente"})
}

// Report handles GET /api/productos/pdf.
func (h *ProductsHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.products.GenerateInventoryReport(c.UserContext())
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename=jende_inventario.pdf`)
	return c.Send(pdf)
}

// formString reports whether a multipart field was supplied, distinguishing
// "absent" from "empty".
func formString(c *fiber.Ctx, key string) *string {
	if form, err := c.MultipartForm(); err == nil {
		vals, ok := form.Value[key]
		if !ok || len(vals) == 0 {
			return nil
		}
		v := vals[0]
		return &v
	}
	if v := c.FormValue(key); v != "" {
		return &v
	}
	return nil
}

func formFile(c *fiber.Ctx, key string) *multipart.FileHeader {
	fh, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return fh
}

func parseFloatField(raw, field string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be a number", map[string]any{field: raw})
	}
	return &val, nil
}

func parseIntField(raw, field string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be an integer", map[string]any{field: raw})
	}
	return &val, nil
}
