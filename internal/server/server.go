package server

import (
	"strings"

	"vardiya-backend/internal/audit"
	"vardiya-backend/internal/auth"
	"vardiya-backend/internal/branches"
	"vardiya-backend/internal/config"
	"vardiya-backend/internal/httperr"
	"vardiya-backend/internal/logger"
	"vardiya-backend/internal/models"
	"vardiya-backend/internal/schedules"
	"vardiya-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// New - tüm route'ları kayıtlı fiber uygulaması; main ve testler aynı kurulumu kullanır
func New(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: httperr.Handler,
		BodyLimit:    10 * 1024 * 1024, // xlsx ve profil fotoğrafı yüklemeleri
	})

	app.Use(recover.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(logger.Middleware())

	app.Static("/media", cfg.MediaPath)

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	adminOnly := auth.RequireRole(models.RoleAdmin)

	protected.Get("/auth/user", auth.MeHandler())

	registerBranchRoutes(protected, cfg, adminOnly)
	registerUserRoutes(protected, cfg, adminOnly)
	registerScheduleRoutes(protected, cfg, adminOnly)

	return app
}

// sabit path'ler ":id" route'larından önce kayıtlı olmalı
func registerBranchRoutes(r fiber.Router, cfg *config.Config, adminOnly fiber.Handler) {
	// Çalışma saatleri
	r.Get("/subeler/calisma-saatleri", adminOnly, branches.ListHoursHandler())
	r.Post("/subeler/calisma-saatleri", adminOnly, branches.CreateHoursHandler())
	r.Put("/subeler/calisma-saatleri/:id", adminOnly, branches.UpdateHoursHandler())
	r.Delete("/subeler/calisma-saatleri/:id", adminOnly, branches.DeleteHoursHandler())

	// Toplu işlemler
	r.Post("/subeler/toplu-ice-aktar", adminOnly, branches.ImportBranchesHandler())
	r.Post("/subeler/toplu-sil", adminOnly, branches.BulkDeleteBranchesHandler(cfg))

	r.Get("/subeler", branches.ListBranchesHandler())
	r.Post("/subeler", adminOnly, branches.CreateBranchHandler())
	r.Get("/subeler/:id/qr", adminOnly, branches.GetQRHandler())
	r.Post("/subeler/:id/qr/yenile", adminOnly, branches.RotateQRHandler())
	r.Get("/subeler/:id", branches.GetBranchHandler())
	r.Put("/subeler/:id", adminOnly, branches.UpdateBranchHandler())
	r.Patch("/subeler/:id", adminOnly, branches.UpdateBranchHandler())
	r.Delete("/subeler/:id", adminOnly, branches.DeleteBranchHandler())
}

func registerUserRoutes(r fiber.Router, cfg *config.Config, adminOnly fiber.Handler) {
	r.Get("/kullanicilar/liste", users.ListUsersHandler(cfg))

	// Profil
	r.Get("/kullanicilar/profil", users.GetProfileHandler(cfg))
	r.Post("/kullanicilar/profil", users.CreateProfileRequestHandler(cfg))
	r.Get("/kullanicilar/admin/profil-talepleri", adminOnly, users.ListProfileRequestsHandler(cfg))
	r.Post("/kullanicilar/admin/profil-talepleri/:id", adminOnly, users.DecideProfileRequestHandler())

	// Toplu işlemler
	r.Post("/kullanicilar/toplu-ice-aktar", adminOnly, users.ImportUsersHandler())
	r.Post("/kullanicilar/toplu-sil", adminOnly, users.BulkDeleteUsersHandler(cfg))

	r.Get("/kullanicilar", users.ListUsersHandler(cfg))
	r.Post("/kullanicilar", adminOnly, users.CreateUserHandler(cfg))
	r.Get("/kullanicilar/:id", users.GetUserHandler(cfg))
	r.Put("/kullanicilar/:id", adminOnly, users.UpdateUserHandler(cfg))
	r.Patch("/kullanicilar/:id", adminOnly, users.UpdateUserHandler(cfg))
	r.Delete("/kullanicilar/:id", adminOnly, users.DeleteUserHandler())
}

func registerScheduleRoutes(r fiber.Router, cfg *config.Config, adminOnly fiber.Handler) {
	s := r.Group("/schedules")

	// Vardiyalar
	s.Get("/vardiyalar", schedules.ListShiftsHandler())
	s.Get("/vardiyalarim", schedules.MyShiftsHandler())
	s.Post("/vardiyalar/:id/kontrol", schedules.ControlShiftHandler(cfg))
	s.Get("/vardiyalar/:id/uygun-calisanlar", adminOnly, schedules.EligibleEmployeesHandler())

	// Plan
	s.Post("/plan-olustur", adminOnly, schedules.GeneratePlanHandler())
	s.Post("/plan-yayinla", adminOnly, schedules.PublishPlanHandler())

	// Takas istekleri
	s.Get("/istekler", schedules.ListMyTradesHandler())
	s.Post("/istekler", schedules.CreateTradeHandler())
	s.Post("/istekler/:id/yanitla", schedules.RespondTradeHandler())
	s.Post("/istekler/:id/geri-cek", schedules.WithdrawTradeHandler())
	s.Get("/admin/istekler", adminOnly, schedules.ListAdminTradesHandler())
	s.Post("/admin/istekler/:id/aksiyon", adminOnly, schedules.DecideTradeHandler())

	// İptal istekleri
	s.Post("/iptal-istekleri", schedules.CreateCancelHandler())
	s.Get("/iptal-isteklerim", schedules.ListMyCancelsHandler())
	s.Post("/iptal-istekleri/:id/geri-cek", schedules.WithdrawCancelHandler())
	s.Get("/admin/iptal-istekleri", adminOnly, schedules.ListAdminCancelsHandler())
	s.Post("/admin/iptal-istekleri/:id/aksiyon", adminOnly, schedules.DecideCancelHandler())

	// Müsaitlik
	s.Get("/musaitlik/durum", schedules.GetAvailabilityWindowHandler())
	s.Post("/musaitlik/durum", adminOnly, schedules.SetAvailabilityWindowHandler())
	s.Post("/musaitlik/toplu-ice-aktar", adminOnly, schedules.ImportAvailabilityHandler())
	s.Get("/musaitlik", schedules.GetAvailabilityHandler())
	s.Post("/musaitlik", schedules.SaveAvailabilityHandler())

	// Tercihler
	s.Get("/tercihler", adminOnly, schedules.ListPreferencesHandler())
	s.Post("/tercihler", adminOnly, schedules.CreatePreferenceHandler())
	s.Get("/tercihler/:id", adminOnly, schedules.GetPreferenceHandler())
	s.Put("/tercihler/:id", adminOnly, schedules.UpdatePreferenceHandler())
	s.Patch("/tercihler/:id", adminOnly, schedules.UpdatePreferenceHandler())
	s.Delete("/tercihler/:id", adminOnly, schedules.DeletePreferenceHandler())

	// Kısıtlama kuralları
	s.Get("/kurallar", adminOnly, schedules.ListRulesHandler())
	s.Post("/kurallar", adminOnly, schedules.CreateRuleHandler())
	s.Get("/kurallar/:id", adminOnly, schedules.GetRuleHandler())
	s.Put("/kurallar/:id", adminOnly, schedules.UpdateRuleHandler())
	s.Patch("/kurallar/:id", adminOnly, schedules.UpdateRuleHandler())
	s.Delete("/kurallar/:id", adminOnly, schedules.DeleteRuleHandler())

	// Raporlar
	s.Get("/admin/istatistikler", adminOnly, schedules.StatsHandler())
	s.Get("/admin/onay-gecmisi", adminOnly, audit.ListAuditLogsHandler())
}
