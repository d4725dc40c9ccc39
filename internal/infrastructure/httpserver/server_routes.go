package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	api.POST("/users", s.registerUser)
	api.GET("/users/me", s.getOwnProfile, s.middleware.Identity.RequireUser())

	// Public catalog reads.
	api.GET("/products", s.listProducts)
	api.GET("/products/:id", s.getProduct)
	api.GET("/products/slug/:slug", s.getProductBySlug)
	api.GET("/categories", s.listCategories)
	api.GET("/categories/:id", s.getCategory)
	api.GET("/categories/slug/:slug", s.getCategoryBySlug)

	// Cart operations work for both authenticated users and guest sessions.
	cart := api.Group("/cart")
	cart.Use(s.middleware.Identity.ResolveIdentity())
	cart.GET("", s.getCart)
	cart.DELETE("", s.clearCart)
	cart.POST("/items", s.addCartItem)
	cart.PUT("/items/:productId", s.updateCartItem)
	cart.DELETE("/items/:productId", s.removeCartItem)
	cart.GET("/modifiers", s.getCartPriceModifiers)
	cart.PUT("/items/:productId/modifier", s.setCartPriceModifier)
	cart.DELETE("/items/:productId/modifier", s.removeCartPriceModifier)
	cart.POST("/merge", s.mergeCart, s.middleware.Identity.RequireUser())

	orders := api.Group("/orders")
	orders.Use(s.middleware.Identity.RequireUser())
	orders.POST("", s.checkout)
	orders.GET("", s.listOrders)
	orders.GET("/:id", s.getOrder)

	admin := api.Group("/admin")
	admin.Use(s.middleware.Identity.RequireUser())
	admin.POST("/products", s.createProduct)
	admin.PUT("/products/:id", s.updateProduct)
	admin.DELETE("/products/:id", s.deleteProduct)
	admin.PUT("/products/:id/translations", s.replaceProductTranslations)
	admin.POST("/categories", s.createCategory)
	admin.PUT("/categories/:id", s.updateCategory)
	admin.DELETE("/categories/:id", s.deleteCategory)
	admin.PUT("/categories/:id/translations", s.replaceCategoryTranslations)
	admin.PUT("/orders/:id/status", s.updateOrderStatus)
}
