package routes

import (
	"net/http"

	"aniwatch/internal/handlers"
	"aniwatch/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(
	router *mux.Router,
	sessions middleware.SessionResolver,
	authHandler *handlers.AuthHandler,
	animeHandler *handlers.AnimeHandler,
	passwordHandler *handlers.PasswordHandler,
	uploadDir string,
) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Logging)

	// Корень ведёт на дашборд; гард сессии уже сам решит, пускать ли
	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/dashboard", http.StatusTemporaryRedirect)
	}).Methods("GET")

	// Обложки раздаются по непрозрачным именам
	router.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))),
	)

	api := router.PathPrefix("/api").Subrouter()

	// --- Публичные маршруты ---
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")

	api.HandleFunc("/forgot-password", passwordHandler.Forgot).Methods("POST")
	api.HandleFunc("/reset-password/{token}", passwordHandler.ValidateToken).Methods("GET")
	api.HandleFunc("/reset-password", passwordHandler.Reset).Methods("POST")

	// --- Защищённые сессией ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.SessionAuth(sessions))

	protected.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	protected.HandleFunc("/dashboard", animeHandler.Dashboard).Methods("GET")

	protected.HandleFunc("/anime", animeHandler.Add).Methods("POST")
	protected.HandleFunc("/anime/{id:[0-9]+}", animeHandler.Get).Methods("GET")
	protected.HandleFunc("/anime/{id:[0-9]+}", animeHandler.Update).Methods("POST")
	protected.HandleFunc("/anime/{id:[0-9]+}/delete", animeHandler.Delete).Methods("POST")
}
