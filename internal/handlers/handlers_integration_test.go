package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"productmanager/internal/handlers"
	"productmanager/internal/models"
	"productmanager/internal/repositories"
	"productmanager/internal/services"
)

// setupApp builds a Fiber app over an in-memory SQLite store with the full
// product stack wired in, plus static serving for the upload directory.
func setupApp(t *testing.T) *fiber.App {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	productRepo := repositories.NewGORMProductRepository(db)
	productService := services.NewProductService(productRepo, nil) // nil RabbitMQ client

	uploadDir := t.TempDir()
	storageService, err := services.NewLocalStorageService(uploadDir, "/uploads")
	require.NoError(t, err)

	productHandler := handlers.NewProductHandler(productService, storageService)

	app := fiber.New()
	app.Static("/uploads", uploadDir)

	api := app.Group("/api")
	productHandler.RegisterRoutes(api)

	return app
}

// TestMain suppresses handler logging for cleaner test output.
func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func createProduct(t *testing.T, app *fiber.App, name, description, category string, price float64) models.ProductResponse {
	t.Helper()

	payload := map[string]interface{}{
		"name":        name,
		"description": description,
		"price":       price,
		"category":    category,
	}
	jsonBody, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/products/", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	defer resp.Body.Close()

	var created models.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func getProduct(t *testing.T, app *fiber.App, id string) (int, models.ProductResponse) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var product models.ProductResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	}
	return resp.StatusCode, product
}

func TestProductLifecycle(t *testing.T) {
	app := setupApp(t)

	// Create
	payload := map[string]interface{}{
		"name":        "Mouse Gamer",
		"description": "Mouse com 7 botões",
		"price":       149.90,
		"category":    "Periféricos",
	}
	jsonBody, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/api/products/", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/products/"+created.ID, resp.Header.Get(fiber.HeaderLocation))
	assert.Equal(t, "Mouse Gamer", created.Name)
	assert.Equal(t, models.StatusActive, created.Status)
	assert.True(t, created.Price.Equal(decimal.NewFromFloat(149.90)))
	assert.Nil(t, created.ImageURL)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// Read back
	status, fetched := getProduct(t, app, created.ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "Mouse Gamer", fetched.Name)

	// Update
	updatePayload := map[string]interface{}{
		"name":        "Mouse Novo",
		"description": "Descrição atualizada",
		"price":       129.90,
		"category":    "Periféricos",
		"status":      "inactive",
	}
	jsonBody, _ = json.Marshal(updatePayload)
	req = httptest.NewRequest(http.MethodPut, "/api/products/"+created.ID, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()

	assert.Equal(t, "Mouse Novo", updated.Name)
	assert.Equal(t, models.StatusInactive, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt.Unix(), updated.CreatedAt.Unix())

	// Delete
	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Gone afterwards, and a second delete reports not found.
	status, _ = getProduct(t, app, created.ID)
	assert.Equal(t, http.StatusNotFound, status)

	req = httptest.NewRequest(http.MethodDelete, "/api/products/"+created.ID, nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetProductByID_NotFound(t *testing.T) {
	app := setupApp(t)

	status, _ := getProduct(t, app, "a2f5f6c0-0000-0000-0000-000000000000")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	app := setupApp(t)

	payload := map[string]interface{}{
		"name":     "Fantasma",
		"price":    10,
		"category": "Misc",
		"status":   "active",
	}
	jsonBody, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPut, "/api/products/nope", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateProduct_Validation(t *testing.T) {
	app := setupApp(t)

	cases := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"price": 10, "category": "Misc"}},
		{"name too long", map[string]interface{}{"name": strings.Repeat("x", 201), "price": 10, "category": "Misc"}},
		{"missing category", map[string]interface{}{"name": "Mouse", "price": 10}},
		{"category too long", map[string]interface{}{"name": "Mouse", "price": 10, "category": strings.Repeat("x", 101)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			jsonBody, _ := json.Marshal(tc.payload)
			req := httptest.NewRequest(http.MethodPost, "/api/products/", bytes.NewReader(jsonBody))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}

	// Malformed JSON is rejected at the transport boundary.
	req := httptest.NewRequest(http.MethodPost, "/api/products/", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestListProducts_Filters(t *testing.T) {
	app := setupApp(t)

	mouse := createProduct(t, app, "Mouse", "", "Periféricos", 15.00)
	keyboard := createProduct(t, app, "Teclado", "", "Periféricos", 20.00)
	monitor := createProduct(t, app, "Monitor", "", "Informática", 200.00)

	// Flip the keyboard to inactive through the API.
	updatePayload := map[string]interface{}{
		"name":     "Teclado",
		"price":    20.00,
		"category": "Periféricos",
		"status":   "inactive",
	}
	jsonBody, _ := json.Marshal(updatePayload)
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+keyboard.ID, bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	list := func(query string) []models.ProductResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/products/"+query, nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		defer resp.Body.Close()

		var products []models.ProductResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
		return products
	}

	ids := func(products []models.ProductResponse) []string {
		out := make([]string, 0, len(products))
		for _, p := range products {
			out = append(out, p.ID)
		}
		return out
	}

	// No filters: everything, in creation order.
	assert.Equal(t, []string{mouse.ID, keyboard.ID, monitor.ID}, ids(list("")))

	// Single filters.
	assert.Equal(t, []string{mouse.ID, keyboard.ID}, ids(list("?category=Periféricos")))
	assert.Equal(t, []string{keyboard.ID, monitor.ID}, ids(list("?minPrice=20")))
	assert.Equal(t, []string{mouse.ID, keyboard.ID}, ids(list("?maxPrice=20")))
	assert.Equal(t, []string{keyboard.ID}, ids(list("?status=inactive")))

	// Combined filters AND together.
	assert.Equal(t, []string{mouse.ID}, ids(list("?category=Periféricos&minPrice=10&maxPrice=19&status=active")))

	// Invalid filter values are a client error.
	req = httptest.NewRequest(http.MethodGet, "/api/products/?minPrice=abc", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	req = httptest.NewRequest(http.MethodGet, "/api/products/?status=archived", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadProductImage(t *testing.T) {
	app := setupApp(t)

	product := createProduct(t, app, "Webcam", "Full HD", "Periféricos", 250.00)

	imageBytes := []byte("fake png content")
	resp := uploadImage(t, app, product.ID, "webcam photo.png", imageBytes)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.ProductResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()

	require.NotNil(t, updated.ImageURL)
	assert.True(t, strings.HasPrefix(*updated.ImageURL, "/uploads/"))
	assert.False(t, updated.UpdatedAt.Before(product.UpdatedAt))
	// Only the image reference and UpdatedAt changed.
	assert.Equal(t, product.Name, updated.Name)
	assert.Equal(t, product.Description, updated.Description)
	assert.True(t, product.Price.Equal(updated.Price))
	assert.Equal(t, product.Status, updated.Status)
	assert.Equal(t, product.CreatedAt.Unix(), updated.CreatedAt.Unix())

	// The reference is retrievable through static serving.
	req := httptest.NewRequest(http.MethodGet, *updated.ImageURL, nil)
	staticResp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, staticResp.StatusCode)
	served, err := io.ReadAll(staticResp.Body)
	require.NoError(t, err)
	assert.Equal(t, imageBytes, served)
	staticResp.Body.Close()

	// The lookup also reflects the new reference.
	status, fetched := getProduct(t, app, product.ID)
	assert.Equal(t, http.StatusOK, status)
	require.NotNil(t, fetched.ImageURL)
	assert.Equal(t, *updated.ImageURL, *fetched.ImageURL)
}

func TestUploadProductImage_EmptyFile(t *testing.T) {
	app := setupApp(t)

	product := createProduct(t, app, "Webcam", "", "Periféricos", 250.00)

	resp := uploadImage(t, app, product.ID, "empty.png", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// No side effects: the product still has no image.
	status, fetched := getProduct(t, app, product.ID)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, fetched.ImageURL)
}

func TestUploadProductImage_MissingFileField(t *testing.T) {
	app := setupApp(t)

	product := createProduct(t, app, "Webcam", "", "Periféricos", 250.00)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+product.ID+"/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestUploadProductImage_ProductNotFound(t *testing.T) {
	app := setupApp(t)

	resp := uploadImage(t, app, "missing-id", "photo.png", []byte("content"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

// uploadImage posts a multipart request with a single "file" part.
func uploadImage(t *testing.T, app *fiber.App, productID, fileName string, content []byte) *http.Response {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	if len(content) > 0 {
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products/"+productID+"/image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}
