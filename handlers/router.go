package handlers

import (
	"github.com/gin-gonic/gin"

	"foodieconnect/metrics"
	"foodieconnect/middleware"
	"foodieconnect/services"
	"foodieconnect/websocket"
)

type RouterDeps struct {
	Services       *services.Services
	Tokens         middleware.TokenVerifier
	DB             Pinger
	Realtime       *websocket.Handler
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	UploadDir      string
}

// NewRouter mounts the REST API under /api, the websocket endpoint at /ws
// and the ops endpoints at the root.
func NewRouter(d RouterDeps) *gin.Engine {
	h := New(d.Services, d.DB, d.UploadDir)
	auth := middleware.Auth(d.Tokens)
	optional := middleware.OptionalAuth(d.Tokens)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.CORS(d.AllowedOrigins))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	r.GET("/health", h.Health)
	if d.Realtime != nil {
		r.GET("/ws", d.Realtime.ServeWS)
	}

	api := r.Group("/api")

	users := api.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/refresh", auth, h.RefreshToken)

		users.GET("/profile", auth, h.GetProfile)
		users.PUT("/profile", auth, h.UpdateProfile)
		users.GET("", auth, h.ListUsers)
		users.GET("/search", auth, h.SearchUsers)

		users.POST("/favorites/:recipeId", auth, h.AddFavorite)
		users.DELETE("/favorites/:recipeId", auth, h.RemoveFavorite)

		users.GET("/friends", auth, h.GetFriends)
		users.GET("/friends/pending", auth, h.GetFriendRequests)
		users.POST("/friends/accept/:requestId", auth, h.AcceptFriendRequest)
		users.POST("/friends/reject/:requestId", auth, h.RejectFriendRequest)
		users.POST("/friends/:userId", auth, h.SendFriendRequest)
		users.DELETE("/friends/:userId", auth, h.RemoveFriend)

		users.GET("/:id", auth, h.GetUser)
		users.DELETE("/:id", auth, h.DeleteUser)
	}

	groups := api.Group("/groups", auth)
	{
		groups.POST("", h.CreateGroup)
		groups.GET("", h.ListGroups)
		groups.GET("/search", h.SearchGroups)
		groups.GET("/feed", h.GetFeed)
		groups.GET("/user/my-groups", h.MyGroups)

		groups.GET("/:id", h.GetGroup)
		groups.PUT("/:id", h.UpdateGroup)
		groups.DELETE("/:id", h.DeleteGroup)
		groups.POST("/:id/join", h.JoinGroup)
		groups.POST("/:id/leave", h.LeaveGroup)

		groups.GET("/:id/pending-requests", h.PendingRequests)
		groups.POST("/:id/approve/:userId", h.ApproveRequest)
		groups.POST("/:id/reject/:userId", h.RejectRequest)
		groups.DELETE("/:id/members/:userId", h.RemoveMember)

		groups.POST("/:id/posts", h.CreatePost)
		groups.DELETE("/:id/posts/:postId", h.DeletePost)
		groups.POST("/:id/posts/:postId/like", h.TogglePostLike)
		groups.POST("/:id/posts/:postId/comments", h.AddPostComment)
		groups.DELETE("/:id/posts/:postId/comments/:commentId", h.DeletePostComment)
		groups.POST("/:id/recipes", h.CreateGroupRecipe)
	}

	recipes := api.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/search", h.SearchRecipes)
		recipes.GET("/popular", h.PopularRecipes)
		recipes.GET("/user/:userId", h.UserRecipes)
		recipes.GET("/group/:groupId", optional, h.GroupRecipes)
		recipes.GET("/:id", h.GetRecipe)

		recipes.POST("", auth, h.CreateRecipe)
		recipes.PUT("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.POST("/:id/like", auth, h.ToggleRecipeLike)
		recipes.POST("/:id/comments", auth, h.AddRecipeComment)
		recipes.DELETE("/:id/comments/:commentId", auth, h.DeleteRecipeComment)
	}

	chat := api.Group("/chat", auth)
	{
		chat.GET("/conversations", h.GetConversations)
		chat.GET("/unread-count", h.GetUnreadCount)
		chat.GET("/:userId", h.GetChatHistory)
		chat.POST("/:userId", h.SendMessage)
		chat.PUT("/:userId/read", h.MarkMessagesRead)
	}

	notifications := api.Group("/notifications", auth)
	{
		notifications.GET("", h.ListNotifications)
		notifications.PUT("/read-all", h.MarkAllNotificationsRead)
		notifications.PUT("/:id/read", h.MarkNotificationRead)
	}

	stats := api.Group("/stats", auth)
	{
		stats.GET("/overview", h.StatsOverview)
		stats.GET("/cuisine-distribution", h.CuisineDistribution)
		stats.GET("/group-categories", h.GroupCategories)
		stats.GET("/popular-recipes", h.PopularRecipeStats)
	}

	files := api.Group("/files")
	{
		files.POST("/upload", auth, h.UploadFile)
		files.GET("/:filename", h.ServeFile)
	}

	return r
}
