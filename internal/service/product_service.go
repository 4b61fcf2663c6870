package service

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/jende/inventory-service/internal/domain"
	"github.com/jende/inventory-service/internal/report"
	"github.com/jende/inventory-service/internal/repository"
	apperrors "github.com/jende/inventory-service/pkg/util"
)

// publicPhotoPrefix is the URL path under which uploaded photos are served.
const publicPhotoPrefix = "/productos/"

// ProductCreateInput describes product creation payload. Photo is optional;
// when present the file is stored under the upload directory.
type ProductCreateInput struct {
	Name        string
	Price       *float64
	Description string
	Stock       *int
	Photo       *multipart.FileHeader
}

// ProductUpdateInput carries only the fields the caller supplied.
type ProductUpdateInput struct {
	Name        *string
	Price       *float64
	Description *string
	Stock       *int
	Photo       *multipart.FileHeader
}

// ProductService coordinates inventory workflows.
type ProductService struct {
	products  repository.ProductRepository
	reports   *report.Generator
	logger    *zap.Logger
	uploadDir string
}

// ProductDependencies bundles collaborators for the product service.
type ProductDependencies struct {
	ProductRepo repository.ProductRepository
	Reports     *report.Generator
	Logger      *zap.Logger
	UploadDir   string
}

// NewProductService constructs the service.
func NewProductService(deps ProductDependencies) *ProductService {
	return &ProductService{
		products:  deps.ProductRepo,
		reports:   deps.Reports,
		logger:    deps.Logger,
		uploadDir: deps.UploadDir,
	}
}

// CreateProduct validates input, stores the uploaded photo if any, and
// persists a new product. The SKU is assigned by the store.
func (s *ProductService) CreateProduct(ctx context.Context, input ProductCreateInput) (*domain.Product, error) {
	if input.Name == "" || input.Price == nil {
		return nil, apperrors.NewValidationError("name and price are required", nil)
	}

	photo := ""
	if input.Photo != nil {
		stored, err := s.storeUpload(input.Photo)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		photo = stored
	}

	product := &domain.Product{
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		Photo:       photo,
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, apperrors.MapError(err)
	}
	return product, nil
}

// ListProducts returns every product, order unspecified.
func (s *ProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// UpdateProduct changes only the supplied fields. The photo reference is
// replaced only when a new upload is present.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input ProductUpdateInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Photo != nil {
		stored, err := s.storeUpload(input.Photo)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		product.Photo = stored
	}

	if err := s.products.Update(ctx, product); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("product", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return product, nil
}

// DeleteProduct removes a product. Deleting an unknown id silently succeeds.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// GenerateInventoryReport renders the PDF inventory report over all products
// sorted by SKU then name.
func (s *ProductService) GenerateInventoryReport(ctx context.Context) ([]byte, error) {
	products, err := s.products.ListBySKU(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	pdf, err := s.reports.Render(ctx, products)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pdf, nil
}

// storeUpload writes the multipart file under the upload directory with a
// random name, preserving the original extension, and returns the public
// path persisted on the product.
func (s *ProductService) storeUpload(fh *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(fh.Filename)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	s.logger.Debug("stored product photo", zap.String("file", name))
	return publicPhotoPrefix + name, nil
}
