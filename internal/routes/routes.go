package routes

import (
	"github.com/Noe001/work-optimizer-sub001/internal/handlers"
	"github.com/go-chi/chi/v5"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/auth/signup", handlers.Signup)
	r.Post("/api/auth/signin", handlers.Signin)
	r.Post("/api/auth/signout", handlers.Signout)
	r.Get("/api/auth/me", handlers.GetMe)

	// Room routes
	r.Post("/api/rooms", handlers.CreateRoom)
	r.Get("/api/rooms", handlers.ListRooms)
	r.Post("/api/rooms/dm", handlers.OpenDirectMessage)
	r.Put("/api/rooms/{roomID}", handlers.UpdateRoom)
	r.Delete("/api/rooms/{roomID}", handlers.DeleteRoom)
	r.Get("/api/rooms/{roomID}/members", handlers.GetRoomMembers)
	r.Post("/api/rooms/{roomID}/members", handlers.AddMember)
	r.Delete("/api/rooms/{roomID}/members/{userID}", handlers.RemoveMember)
	r.Get("/api/rooms/{roomID}/stats", handlers.GetRoomStats)

	// Message routes
	r.Post("/api/rooms/{roomID}/messages", handlers.SendMessage)
	r.Get("/api/rooms/{roomID}/messages", handlers.GetMessages)
	r.Post("/api/rooms/{roomID}/read", handlers.MarkMessagesRead)
	r.Get("/api/rooms/{roomID}/unread", handlers.GetUnreadCount)

	// Signed attachment links
	r.Get("/api/attachments", handlers.GetAttachment)

	// Notification routes
	r.Get("/api/notifications", handlers.ListNotifications)
	r.Put("/api/notifications/{notificationID}/read", handlers.MarkNotificationRead)
	r.Get("/api/notifications/target", handlers.ResolveNotificationTarget)

	// Real-time chat over WebSocket
	r.Get("/api/chat/ws", handlers.ChatWebSocket)

	// Operational routes
	r.Get("/api/ops/failed-tasks", handlers.GetFailedTasks)
	r.Put("/api/ops/unblock-ip", handlers.UnblockIP)
}
