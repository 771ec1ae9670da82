package routes

import (
	"net/http"

	"storefront-service/controllers"
	"storefront-service/importer"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Category   *controllers.CategoryController
	Product    *controllers.ProductController
	Import     *controllers.ImportHandler
	Auth       *controllers.AuthController
	Subscriber *controllers.SubscriberController
}

// Guards are optional middleware. Admin wraps catalog mutations, Limiter
// wraps /login and /register.
type Guards struct {
	Admin   gin.HandlerFunc
	Limiter gin.HandlerFunc
}

func chain(mw gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	if mw == nil {
		return []gin.HandlerFunc{h}
	}
	return []gin.HandlerFunc{mw, h}
}

func RegisterRoutes(r *gin.Engine, h Handlers, g Guards) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	RegisterCategoryRoutes(r, h, g)
	RegisterProductRoutes(r, h, g)
	RegisterAuthRoutes(r, h, g)
	RegisterSubscriberRoutes(r, h)

	r.GET("/imports/:id", h.Import.GetJob)
}

func RegisterCategoryRoutes(r *gin.Engine, h Handlers, g Guards) {
	categoryRoutes := r.Group("/category")
	{
		categoryRoutes.GET("", h.Category.GetCategories)
		categoryRoutes.POST("/create-category", chain(g.Admin, h.Category.CreateCategory)...)
		categoryRoutes.PUT("/update-category/:id", chain(g.Admin, h.Category.UpdateCategory)...)
		categoryRoutes.DELETE("/delete-category/:id", chain(g.Admin, h.Category.DeleteCategory)...)
		categoryRoutes.POST("/uploadcsv", chain(g.Admin, h.Import.Upload(services.EntityCategory, "csvFile", importer.FormatCSV))...)
		categoryRoutes.POST("/uploadjson", chain(g.Admin, h.Import.Upload(services.EntityCategory, "jsonFile", importer.FormatJSON))...)
		categoryRoutes.POST("/validate-upload", chain(g.Admin, h.Import.ValidateUpload(services.EntityCategory))...)
	}
}

func RegisterProductRoutes(r *gin.Engine, h Handlers, g Guards) {
	productRoutes := r.Group("/product")
	{
		productRoutes.GET("", h.Product.GetProducts)
		productRoutes.POST("/create-product", chain(g.Admin, h.Product.CreateProduct)...)
		productRoutes.PUT("/update-product/:id", chain(g.Admin, h.Product.UpdateProduct)...)
		productRoutes.DELETE("/delete-product/:id", chain(g.Admin, h.Product.DeleteProduct)...)
		productRoutes.POST("/uploadcsv", chain(g.Admin, h.Import.Upload(services.EntityProduct, "csvFile", importer.FormatCSV))...)
		productRoutes.POST("/uploadjson", chain(g.Admin, h.Import.Upload(services.EntityProduct, "jsonFile", importer.FormatJSON))...)
		productRoutes.POST("/validate-upload", chain(g.Admin, h.Import.ValidateUpload(services.EntityProduct))...)
	}
}

func RegisterAuthRoutes(r *gin.Engine, h Handlers, g Guards) {
	r.POST("/register", chain(g.Limiter, h.Auth.Register)...)
	r.POST("/login", chain(g.Limiter, h.Auth.Login)...)
	r.GET("/verify-email", h.Auth.VerifyEmail)

	userRoutes := r.Group("/user")
	{
		userRoutes.GET("", h.Auth.ListUsers)
		userRoutes.POST("/check-username", h.Auth.CheckUsername)
	}
}

func RegisterSubscriberRoutes(r *gin.Engine, h Handlers) {
	subscriberRoutes := r.Group("/subscribers")
	{
		subscriberRoutes.GET("", h.Subscriber.List)
		subscriberRoutes.GET("/:id", h.Subscriber.Get)
		subscriberRoutes.POST("", h.Subscriber.Create)
		subscriberRoutes.PATCH("/:id", h.Subscriber.Update)
		subscriberRoutes.DELETE("/:id", h.Subscriber.Delete)
	}
}
