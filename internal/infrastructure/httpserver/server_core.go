package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pedalcraft/commerce-backend/internal/core/ports"
	customMiddleware "github.com/pedalcraft/commerce-backend/internal/infrastructure/httpserver/middleware"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host           string
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TLSCertFile    string
	TLSKeyFile     string
	AllowedOrigins []string
	Environment    string
}

type ServerDeps struct {
	CartService    ports.CartService
	CatalogService ports.CatalogService
	OrderService   ports.OrderService
	UserService    ports.UserService
	HealthCheckers []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	cartService    ports.CartService
	catalogService ports.CatalogService
	orderService   ports.OrderService
	userService    ports.UserService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, jwtSecret string, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		cartService:    deps.CartService,
		catalogService: deps.CatalogService,
		orderService:   deps.OrderService,
		userService:    deps.UserService,
		healthCheckers: deps.HealthCheckers,
		middleware: customMiddleware.NewMiddlewareCollection(
			logger,
			jwtSecret,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
