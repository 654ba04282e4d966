package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gymcore/gym-api/internal/auth"
	"github.com/gymcore/gym-api/internal/handlers"
	"github.com/gymcore/gym-api/internal/metrics"
	"github.com/gymcore/gym-api/internal/middleware"
)

// SetupRouter wires every endpoint. Routes under /private need a bearer
// token; RequirePermission narrows them further by role.
func SetupRouter(h *handlers.Handlers, m *metrics.Metrics, corsOrigin string) *gin.Engine {
	handlers.RegisterValidators()

	router := gin.New()

	// --- Global middleware ---
	// CORS goes first so preflight requests never reach auth.
	router.Use(
		middleware.CORS(corsOrigin),
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(h.Logger),
		middleware.Metrics(m),
	)

	// --- Operational (Public) ---
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong!"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// --- Auth Routes (Public) ---
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", h.Register)
		authRoutes.POST("/login", h.Login)
	}

	// --- Protected Routes (Login Required) ---
	private := router.Group("/private")
	private.Use(middleware.AuthMiddleware(h.Tokens), middleware.VerifyAdminRole(h.Gym.Users))
	{
		private.GET("/perfil", h.GetProfile)
		private.PUT("/perfil", h.UpdateProfile)
		private.GET("/membresia/estado", h.GetMembershipStatus)

		// --- Memberships ---
		memberships := private.Group("/membresias")
		{
			memberships.GET("", h.ListMemberships)
			memberships.POST("", middleware.RequirePermission(auth.ActionManageMemberships), h.CreateMembership)
			memberships.PUT("/:id", middleware.RequirePermission(auth.ActionManageMemberships), h.UpdateMembership)
		}

		// --- Payments ---
		payments := private.Group("/pagos")
		{
			payments.POST("", middleware.RequirePermission(auth.ActionRegisterPayment), h.RegisterPayment)
			payments.GET("", middleware.RequirePermission(auth.ActionListAllPayments), h.ListPayments)
			payments.GET("/mios", h.ListMyPayments)
		}

		// --- User administration ---
		users := private.Group("/usuarios")
		users.Use(middleware.RequirePermission(auth.ActionManageUsers))
		{
			users.GET("", h.ListUsers)
			users.PATCH("/:id/rol", h.UpdateUserRole)
			users.PATCH("/:id/membresia", h.AssignMembership)
			users.DELETE("/:id", h.DeleteUser)
		}

		// --- Classes ---
		classes := private.Group("/clases")
		{
			classes.GET("", h.ListClasses)
			classes.GET("/:id", h.GetClass)
			classes.POST("", middleware.RequirePermission(auth.ActionManageClasses), h.CreateClass)
			classes.PUT("/:id", middleware.RequirePermission(auth.ActionManageClasses), h.UpdateClass)
			classes.DELETE("/:id", middleware.RequirePermission(auth.ActionManageClasses), h.DeleteClass)
		}

		// --- Sessions ---
		sessions := private.Group("/sesiones")
		{
			sessions.GET("", h.ListSessions)
			sessions.GET("/:id", h.GetSession)
			sessions.POST("", middleware.RequirePermission(auth.ActionManageSessions), h.CreateSession)
			sessions.PUT("/:id", middleware.RequirePermission(auth.ActionManageSessions), h.UpdateSession)
			sessions.DELETE("/:id", middleware.RequirePermission(auth.ActionManageSessions), h.DeleteSession)
			sessions.GET("/:id/reservas", middleware.RequirePermission(auth.ActionListSessionBookings), h.ListSessionReservations)
		}

		// --- Reservations ---
		// Cancel is open to every role: the service checks owner or staff.
		reservations := private.Group("/reservas")
		{
			reservations.POST("", middleware.RequirePermission(auth.ActionCreateReservation), h.CreateReservation)
			reservations.GET("", h.ListMyReservations)
			reservations.DELETE("/:id", h.CancelReservation)
			reservations.PATCH("/:id/confirmar", middleware.RequirePermission(auth.ActionConfirmReservation), h.ConfirmReservation)
		}

		// --- Staff shifts ---
		shifts := private.Group("/turnos")
		{
			shifts.POST("/entrada", middleware.RequirePermission(auth.ActionRegisterShift), h.RegisterShiftEntry)
			shifts.POST("/salida", middleware.RequirePermission(auth.ActionRegisterShift), h.RegisterShiftExit)
			shifts.GET("", h.ListShifts)
		}

		// --- Gym accesses ---
		accesses := private.Group("/accesos")
		{
			accesses.POST("", middleware.RequirePermission(auth.ActionRegisterAccess), h.RegisterAccess)
			accesses.GET("", h.ListAccesses)
		}

		// --- Notifications ---
		notifications := private.Group("/notificaciones")
		{
			notifications.GET("", h.GetMyNotifications)
			notifications.GET("/no-leidas", h.CountUnreadNotifications)
			notifications.PATCH("/:id/leida", h.MarkNotificationAsRead)
		}

		// --- Reports (Administrator) ---
		reports := private.Group("/reportes")
		reports.Use(middleware.RequirePermission(auth.ActionViewReports))
		{
			reports.GET("/ocupacion", h.OccupancyReport)
			reports.GET("/asistencia", h.AttendanceReport)
			reports.GET("/ingresos", h.RevenueReport)
			reports.GET("/turnos", h.ShiftReport)
		}
	}

	return router
}
