package handler

import (
	"net/http"

	"github.com/civicsync/backend/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux. Mutating issue
// routes are wrapped in RequireAuth so an invalid credential never
// reaches the lifecycle engine.
func RegisterRoutes(mux *http.ServeMux, auth *service.AuthService, issues *service.IssueService) {
	authHandler := NewAuthHandler(auth)
	issueHandler := NewIssueHandler(issues)

	mux.HandleFunc("GET /{$}", HandleIndex)
	mux.HandleFunc("GET /healthz", HandleHealthz)

	mux.HandleFunc("POST /auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleLogin)
	mux.Handle("GET /auth/profile", RequireAuth(auth, http.HandlerFunc(authHandler.HandleProfile)))

	mux.HandleFunc("GET /issues", issueHandler.HandleList)
	mux.HandleFunc("GET /issues/{id}", issueHandler.HandleGet)
	mux.Handle("POST /issues", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleCreate)))
	mux.Handle("PUT /issues/{id}", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleUpdate)))
	mux.Handle("PATCH /issues/{id}/status", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleUpdateStatus)))
	mux.Handle("DELETE /issues/{id}", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleDelete)))
	mux.Handle("POST /issues/{id}/vote", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleVote)))

	mux.Handle("GET /users/my-issues", RequireAuth(auth, http.HandlerFunc(issueHandler.HandleMyIssues)))

	mux.HandleFunc("/", HandleNotFound)
}
