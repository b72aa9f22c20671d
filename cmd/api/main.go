package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-stockcount-ws/internal/anomaly"
	"go-stockcount-ws/internal/handler"
	"go-stockcount-ws/internal/middleware"
	"go-stockcount-ws/internal/model"
	"go-stockcount-ws/internal/repository"
	"go-stockcount-ws/internal/service"
	"go-stockcount-ws/internal/ws"
	"go-stockcount-ws/pkg/cache"
	"go-stockcount-ws/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (use a dedicated migration tool in production)
	db.AutoMigrate(
		&model.Tenant{}, &model.User{}, &model.Privilege{}, &model.Role{},
		&model.Location{}, &model.ContainerType{}, &model.InventoryItem{},
		&model.CountSession{}, &model.CountRecord{},
		&model.ScanEvent{}, &model.CountAuditLog{},
	)

	// 3. Seed default privileges, roles, tenant, and admin user
	tenantID := seedDefaults(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Redis-backed idempotency guard. No Redis disables the guard;
	// the unique index on scan events still dedupes at the database.
	var idemStore repository.IdempotencyStore
	if redisClient := cache.ConnectRedis(); redisClient != nil {
		idemStore = repository.NewRedisIdempotency(redisClient, 24*time.Hour)
	}

	// 6. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	itemRepo := repository.NewItemRepo(db)
	locationRepo := repository.NewLocationRepo(db)
	containerRepo := repository.NewContainerTypeRepo(db)
	sessionRepo := repository.NewSessionRepo(db)
	recordRepo := repository.NewRecordRepo(db)
	scanRepo := repository.NewScanRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	detector := anomaly.NewDetector(detectorConfigFromEnv())

	authService := service.NewAuthService(userRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo)
	sessionService := service.NewSessionService(sessionRepo, recordRepo, itemRepo, locationRepo, auditRepo, detector, db, wsHub)
	syncService := service.NewSyncService(scanRepo, sessionService, idemStore, wsHub)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	catalogHandler := handler.NewCatalogHandler(itemRepo, locationRepo, containerRepo)
	sessionHandler := handler.NewSessionHandler(sessionService)
	countHandler := handler.NewCountHandler(sessionService)
	syncHandler := handler.NewSyncHandler(syncService)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "StockCount WS v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	// Catalog Routes
	protected.Get("/items", middleware.RequirePrivilege("catalog:view"), catalogHandler.GetItems)
	protected.Post("/items", middleware.RequirePrivilege("catalog:manage"), catalogHandler.CreateItem)
	protected.Get("/locations", middleware.RequirePrivilege("catalog:view"), catalogHandler.GetLocations)
	protected.Post("/locations", middleware.RequirePrivilege("catalog:manage"), catalogHandler.CreateLocation)
	protected.Get("/container-types", middleware.RequirePrivilege("catalog:view"), catalogHandler.GetContainerTypes)
	protected.Post("/container-types", middleware.RequirePrivilege("catalog:manage"), catalogHandler.CreateContainerType)

	// Count Session Routes
	protected.Get("/sessions", middleware.RequirePrivilege("session:view"), sessionHandler.GetSessions)
	protected.Post("/sessions", middleware.RequirePrivilege("session:create"), sessionHandler.CreateSession)
	protected.Get("/sessions/:id", middleware.RequirePrivilege("session:view"), sessionHandler.GetSession)
	protected.Get("/sessions/:id/progress", middleware.RequirePrivilege("session:view"), sessionHandler.GetProgress)
	protected.Post("/sessions/:id/transition", middleware.RequirePrivilege("session:transition"), sessionHandler.Transition)

	// Count Submission Route
	protected.Post("/counts", middleware.RequirePrivilege("count:record"), countHandler.SubmitCount)

	// Offline Sync Route
	protected.Post("/sync/batch", middleware.RequirePrivilege("sync:submit"), syncHandler.SyncBatch)

	// User Management Routes
	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.GetUsers)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetUser)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.CreateUser)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdateUserPrivileges)

	// Roles and privileges
	protected.Get("/roles", func(c *fiber.Ctx) error {
		roles, err := roleRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch roles"})
		}
		return c.JSON(roles)
	})
	protected.Get("/privileges", func(c *fiber.Ctx) error {
		privileges, err := privilegeRepo.FindAll()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch privileges"})
		}
		return c.JSON(privileges)
	})

	// WebSocket Route (live count progress feed)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	log.Printf("Default tenant: %s", tenantID)

	// 9. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// detectorConfigFromEnv reads threshold overrides; unset vars keep defaults.
func detectorConfigFromEnv() anomaly.Config {
	cfg := anomaly.DefaultConfig()
	if v, err := strconv.ParseFloat(os.Getenv("ANOMALY_EMPTY_THRESHOLD_G"), 64); err == nil {
		cfg.EmptyThresholdG = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("ANOMALY_OUTLIER_ZSCORE"), 64); err == nil {
		cfg.OutlierZScore = v
	}
	if v, err := strconv.Atoi(os.Getenv("ANOMALY_HISTORY_WINDOW")); err == nil && v > 0 {
		cfg.HistoryWindow = v
	}
	if v, err := strconv.Atoi(os.Getenv("ANOMALY_MIN_HISTORY")); err == nil && v > 0 {
		cfg.MinHistory = v
	}
	if v, err := strconv.ParseFloat(os.Getenv("ANOMALY_MAX_DENSITY"), 64); err == nil {
		cfg.MaxDensityGPerML = v
	}
	return cfg
}

// seedDefaults creates default privileges, roles, the default tenant, and an
// admin user if they don't exist. Returns the default tenant's ID.
func seedDefaults(db *gorm.DB) (tenantID string) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	tenantRepo := repository.NewTenantRepo(db)

	// 1. Seed privileges first
	if err := privilegeRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed privileges: %v", err)
	}

	// 2. Seed roles
	if err := roleRepo.SeedDefaults(); err != nil {
		log.Printf("Warning: Failed to seed roles: %v", err)
	}

	// 3. Assign privileges to roles
	allPrivileges, _ := privilegeRepo.FindAll()

	// MANAGER gets ALL privileges
	managerRole, err := roleRepo.FindByCode(model.RoleManager)
	if err == nil && len(managerRole.Privileges) == 0 {
		if err := roleRepo.AssignPrivileges(managerRole, allPrivileges); err != nil {
			log.Printf("Warning: Failed to grant MANAGER privileges: %v", err)
		} else {
			log.Println("MANAGER role assigned all privileges")
		}
	}

	// COUNTER gets the counting subset
	counterRole, err := roleRepo.FindByCode(model.RoleCounter)
	if err == nil && len(counterRole.Privileges) == 0 {
		counterPrivileges, err := privilegeRepo.FindByCodes(model.CounterPrivilegeCodes)
		if err == nil {
			if err := roleRepo.AssignPrivileges(counterRole, counterPrivileges); err != nil {
				log.Printf("Warning: Failed to grant COUNTER privileges: %v", err)
			} else {
				log.Println("COUNTER role assigned counting privileges")
			}
		}
	}

	// 4. Default tenant
	tenant, err := tenantRepo.FindByName("Default Restaurant")
	if err != nil {
		tenant = &model.Tenant{Name: "Default Restaurant", IsActive: true}
		if err := tenantRepo.Create(tenant); err != nil {
			log.Printf("Warning: Failed to create default tenant: %v", err)
			return ""
		}
		log.Println("Default tenant created")
	}

	// 5. Create default admin user with MANAGER role
	_, err = userRepo.FindByEmail("admin@example.com")
	if err != nil {
		managerRole, _ := roleRepo.FindByCode(model.RoleManager)

		admin := &model.User{
			TenantID:   tenant.ID,
			Email:      "admin@example.com",
			FullName:   "Inventory Manager",
			RoleID:     &managerRole.ID,
			IsActive:   true,
			Privileges: managerRole.Privileges,
		}
		admin.CreatedBy = "system"
		admin.UpdatedBy = "system"

		if err := admin.SetPassword("admin123"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return tenant.ID.String()
		}

		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("Admin user created: admin@example.com / admin123 (MANAGER)")
		}
	}

	return tenant.ID.String()
}
