package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"productmanager/internal/models"
	"productmanager/internal/repositories"
	"productmanager/pkg/rabbitmq"
)

// ProductService handles business logic related to products: id generation,
// status defaulting, timestamp maintenance, existence checks and mapping
// between the persisted entity and the API view.
type ProductService struct {
	repo     repositories.ProductRepository
	mqClient *rabbitmq.Client // optional, nil disables event publishing
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, mqClient *rabbitmq.Client) *ProductService {
	return &ProductService{
		repo:     repo,
		mqClient: mqClient,
	}
}

// GetAllProducts retrieves all products matching the filter.
func (s *ProductService) GetAllProducts(filter repositories.ProductFilter) ([]models.ProductResponse, error) {
	products, err := s.repo.GetAll(filter)
	if err != nil {
		return nil, err
	}

	responses := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, *models.NewProductResponse(&products[i]))
	}
	return responses, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.ProductResponse, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return models.NewProductResponse(product), nil
}

// CreateProduct registers a new product. The ID and timestamps are generated
// here and the status is always active; the request cannot choose it.
func (s *ProductService) CreateProduct(req models.CreateProductRequest) (*models.ProductResponse, error) {
	now := time.Now().UTC()
	product := &models.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Status:      models.StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(product); err != nil {
		return nil, err
	}

	s.publishEvent("product.created", product)

	return models.NewProductResponse(product), nil
}

// UpdateProduct overwrites the mutable fields of an existing product and
// refreshes UpdatedAt. The image URL is untouched by this path.
func (s *ProductService) UpdateProduct(id string, req models.UpdateProductRequest) (*models.ProductResponse, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Category = req.Category
	product.Status = req.Status
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	s.publishEvent("product.updated", product)

	return models.NewProductResponse(product), nil
}

// DeleteProduct permanently removes a product. Existence is checked first so
// a missing record surfaces as repositories.ErrProductNotFound rather than a
// silent no-op.
func (s *ProductService) DeleteProduct(id string) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publishEvent("product.deleted", product)

	return nil
}

// UpdateProductImage sets the image reference of an existing product. Only
// the image URL and UpdatedAt change; every other field keeps its value.
func (s *ProductService) UpdateProductImage(id string, imageURL string) (*models.ProductResponse, error) {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	product.ImageURL = &imageURL
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	s.publishEvent("product.image_updated", product)

	return models.NewProductResponse(product), nil
}

// publishEvent sends a best-effort catalog event. A nil client or a broker
// failure only logs; the request that triggered the event already succeeded.
func (s *ProductService) publishEvent(event string, product *models.Product) {
	if s.mqClient == nil {
		return
	}

	payload := map[string]interface{}{
		"productID": product.ID,
		"name":      product.Name,
		"category":  product.Category,
		"status":    product.Status,
		"price":     product.Price.String(),
	}
	if err := s.mqClient.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event for product %s: %v", event, product.ID, err)
	}
}
