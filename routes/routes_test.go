package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/middleware"
	"storefront-service/controllers"
	"storefront-service/importer"
	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newEngine(t *testing.T, tokens *services.TokenService, g Guards) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	staging, err := importer.NewStaging(t.TempDir())
	require.NoError(t, err)
	categorySvc := services.NewCategoryService(repository.NewMemoryCategoryRepository(true))
	productSvc := services.NewProductService(repository.NewMemoryProductRepository(true))
	importSvc := services.NewImportService(staging, map[string]services.ImportEntity{
		services.EntityCategory: {Schema: services.CategorySchema, Target: categorySvc.ImportTarget(), Plural: "categories"},
		services.EntityProduct:  {Schema: services.ProductSchema, Target: productSvc.ImportTarget(), Plural: "products"},
	})
	users := repository.NewMemoryUserRepository()
	v := controllers.NewRequestValidator(0)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	RegisterRoutes(r, Handlers{
		Category:   controllers.NewCategoryController(categorySvc, nil, v),
		Product:    controllers.NewProductController(productSvc, nil, v),
		Import:     controllers.NewImportHandler(importSvc, nil, v),
		Auth:       controllers.NewAuthController(services.NewAuthService(users, tokens, services.LogMailer{}, ""), services.NewUserService(users), v),
		Subscriber: controllers.NewSubscriberController(services.NewSubscriberService(repository.NewMemorySubscriberRepository()), v),
	}, g)
	return r
}

func serve(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOpenRoutes(t *testing.T) {
	r := newEngine(t, services.NewTokenService("s", time.Hour), Guards{})

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/category/create-category",
		`{"category_name":"Books","category_description":"Paper"}`, "").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodGet, "/category", "", "").Code)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodGet, "/product", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/subscribers", "", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/imports/x", "", "").Code)
}

func TestAdminGuard(t *testing.T) {
	tokens := services.NewTokenService("s", time.Hour)
	r := newEngine(t, tokens, Guards{Admin: middleware.RequireRole(tokens, models.RoleAdmin)})
	body := `{"category_name":"Books","category_description":"Paper"}`

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/category/create-category", body, "").Code)

	userToken, err := tokens.GenerateToken("u1", models.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/category/create-category", body, userToken).Code)

	adminToken, err := tokens.GenerateToken("a1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodPost, "/category/create-category", body, adminToken).Code)

	// Listings stay public.
	assert.Equal(t, http.StatusCreated, serve(r, http.MethodGet, "/category", "", "").Code)
}

func TestLoginRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(rate.Limit(0.001), 1, time.Minute)
	r := newEngine(t, services.NewTokenService("s", time.Hour), Guards{Limiter: limiter.Middleware()})

	body := `{"email":"nobody@example.com","password":"x"}`
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodPost, "/login", body, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodPost, "/login", body, "").Code)
}
