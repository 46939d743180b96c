package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/nvdoan/wavelink-backend/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth and profile routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/login", handlers.Login)
	r.Post("/api/auth/logout", handlers.Logout)
	r.Get("/api/auth/current-user", handlers.CurrentUser)
	r.Get("/api/auth/users", handlers.SearchUsersHandler)

	// Social graph routes
	r.Post("/api/auth/users/{id}/follow", handlers.FollowUser)
	r.Get("/api/auth/users/{id}/followers", handlers.ListFollowers)
	r.Get("/api/auth/users/{id}/following", handlers.ListFollowing)
	r.Get("/api/auth/users/{id}/friends", handlers.ListFriends)

	// Contact sync and blocking
	r.Post("/api/contacts/sync", handlers.SyncContacts)
	r.Post("/api/contacts/block", handlers.BlockContact)

	// Challenges and submissions
	r.Get("/api/challenges", handlers.ListChallenges)
	r.Get("/api/challenges/joined", handlers.ListJoinedChallenges)
	r.Post("/api/challenges/{id}/join", handlers.JoinChallengeHandler)
	r.Get("/api/submissions", handlers.ListSubmissions)
	r.Post("/api/submissions", handlers.CreateSubmission)
	r.Post("/api/submissions/{id}/like", handlers.LikeSubmission)
	r.Get("/api/submissions/{id}/likes", handlers.GetSubmissionLikes)

	// Media uploads (Cloudinary-backed)
	r.Post("/api/media/upload", handlers.UploadMedia)
	r.Get("/api/media/{id}", handlers.GetMedia)

	// Direct messaging (MongoDB history + Redis Pub/Sub)
	r.Post("/api/messages/send", handlers.SendMessage)
	r.Get("/api/messages/history", handlers.MessageHistory)

	// Call room tokens and engine bootstrap
	r.Get("/api/token", handlers.CallToken)
	r.Get("/api/call/config", handlers.CallConfig)

	r.Get("/api/health", handlers.Health)

	// WebSocket endpoint for realtime direct messaging
	r.Get("/ws/messages", handlers.MessageWebSocket)
}
