package api

import (
	"database/sql"
	"net/http"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	parentsHandler := &ParentsHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	reservationsHandler := &ReservationsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret)
	admin := func(h http.HandlerFunc) http.Handler {
		return authMW(RequireAdmin(h))
	}

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("PUT /api/users/{id}/admin", admin(usersHandler.SetAdmin))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Equipment pools: read (all users), write (admin).
	mux.Handle("GET /api/parents", authMW(http.HandlerFunc(parentsHandler.List)))
	mux.Handle("POST /api/parents", admin(parentsHandler.Create))
	mux.Handle("GET /api/parents/{id}", authMW(http.HandlerFunc(parentsHandler.Get)))
	mux.Handle("DELETE /api/parents/{id}", admin(parentsHandler.Delete))
	mux.Handle("PUT /api/parents/{id}/image", admin(parentsHandler.UploadImage))
	mux.Handle("GET /api/parents/{id}/image", authMW(http.HandlerFunc(parentsHandler.GetImage)))

	// Individual units.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items/{id}/block", admin(itemsHandler.Block))
	mux.Handle("POST /api/items/{id}/restore", admin(itemsHandler.Restore))

	// Reservations.
	mux.Handle("POST /api/reservations", authMW(http.HandlerFunc(reservationsHandler.Create)))
	mux.Handle("GET /api/reservations", authMW(http.HandlerFunc(reservationsHandler.List)))
	mux.Handle("GET /api/reservations/all", admin(reservationsHandler.ListAll))
	mux.Handle("GET /api/reservations/{id}", authMW(http.HandlerFunc(reservationsHandler.Get)))
	mux.Handle("POST /api/reservations/{id}/confirm", admin(reservationsHandler.Confirm))
	mux.Handle("POST /api/reservations/{id}/return", admin(reservationsHandler.Return))
	mux.Handle("POST /api/reservations/{id}/reject", admin(reservationsHandler.Reject))
	mux.Handle("DELETE /api/reservations/{id}", authMW(http.HandlerFunc(reservationsHandler.Delete)))

	return mux
}
