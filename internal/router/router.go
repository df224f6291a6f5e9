package router

import (
	"net/http"

	"github.com/blues/propdao/internal/auth"
	"github.com/blues/propdao/internal/config"
	"github.com/blues/propdao/internal/database"
	"github.com/blues/propdao/internal/handler"
	"github.com/blues/propdao/internal/logger"
	"github.com/blues/propdao/internal/logic"
	"github.com/blues/propdao/internal/metrics"
	"github.com/blues/propdao/internal/middleware"
	"github.com/blues/propdao/internal/upload"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Setup 注册中间件和路由，chainClient 为 nil 时链上接口返回 503
func Setup(db *gorm.DB, cfg *config.Config, verifier auth.Verifier, chainClient handler.ChainClient, store *upload.LocalStore) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(metrics.Middleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":   "ok",
			"service":  "propdao",
			"database": "ok",
		}
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = err.Error()
		}
		if chainClient != nil {
			body["chain"] = chainClient.HealthStatus(c.Request.Context())
		}
		c.JSON(status, body)
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// 上传文件静态访问
	r.Static("/uploads", store.Dir())

	unitPrice := parseUnitPrice(cfg.Investment.UnitPrice)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	// API版本组
	v1 := r.Group("/api/v1")
	authed := v1.Group("", auth.RequireAuth(verifier), limiter.Handler())
	admin := authed.Group("", auth.RequireAdmin(cfg.Auth.AdminAllowList))
	{
		// 房产相关路由
		propertyHandler := handler.NewPropertyHandler(db, unitPrice, chainClient)
		v1.GET("/properties", propertyHandler.GetProperties)
		v1.GET("/properties/:id", propertyHandler.GetProperty)
		v1.GET("/properties/:id/onchain", propertyHandler.GetOnchainSupply)
		admin.POST("/properties", propertyHandler.CreateProperty)
		admin.PUT("/properties/:id", propertyHandler.UpdateProperty)

		// 投资相关路由
		investmentHandler := handler.NewInvestmentHandler(db, unitPrice)
		authed.POST("/investments", investmentHandler.CreateInvestment)
		authed.GET("/investments", investmentHandler.GetMyInvestments)

		// 治理相关路由
		daoHandler := handler.NewDAOHandler(db)
		v1.GET("/dao/proposals", daoHandler.GetProposals)
		v1.GET("/dao/proposals/:id", daoHandler.GetProposal)
		admin.POST("/dao/proposals", daoHandler.CreateProposal)
		authed.POST("/dao/vote", daoHandler.CastVote)

		// 用户相关路由
		userHandler := handler.NewUserHandler(db)
		authed.POST("/users/sync", userHandler.SyncUser)
		authed.GET("/users/me", userHandler.GetMe)
		admin.PUT("/users/:id/kyc", userHandler.SetKycStatus)

		// 上传
		uploadHandler := handler.NewUploadHandler(store)
		authed.POST("/upload", uploadHandler.Upload)

		// 链上相关路由
		chainHandler := handler.NewChainHandler(db, chainClient)
		v1.GET("/chain/status", chainHandler.GetStatus)
		v1.GET("/chain/events", chainHandler.GetEvents)
	}

	return r
}

// parseUnitPrice 解析配置的代币单价，无效时使用默认单价
func parseUnitPrice(raw string) decimal.Decimal {
	if raw == "" {
		return logic.DefaultUnitPrice
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || !price.IsPositive() {
		logger.Warn("Invalid investment.unit_price %q, using %s", raw, logic.DefaultUnitPrice)
		return logic.DefaultUnitPrice
	}
	return price
}
