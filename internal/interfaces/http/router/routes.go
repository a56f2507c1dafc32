// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h Handlers) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", h.Project.ListProjects)
		projects.POST("", h.Project.CreateProject)
		projects.GET("/:pid", h.Project.GetProject)
		projects.PUT("/:pid", h.Project.UpdateProject)
		projects.DELETE("/:pid", h.Project.DeleteProject)
		projects.PUT("/:pid/step", h.Project.SaveStep)

		// 项目下的阶段产物
		projects.GET("/:pid/chapters", h.Chapter.ListChapters)
		projects.GET("/:pid/concepts", h.Concept.GetConcepts)
		projects.GET("/:pid/covers", h.Cover.ListCovers)

		// 生成流水线
		projects.POST("/:pid/brainstorm", h.Generation.Brainstorm)
		projects.POST("/:pid/concepts", h.Generation.Concepts)
		projects.POST("/:pid/outline", h.Generation.Outline)
		projects.POST("/:pid/cover", h.Generation.Cover)
	}

	// 章节管理
	chapters := v1.Group("/chapters")
	{
		chapters.GET("/:cid", h.Chapter.GetChapter)
		chapters.PUT("/:cid", h.Chapter.UpdateChapter)
		chapters.POST("/:cid/generate", h.Generation.Chapter)
	}

	// 用户管理
	users := v1.Group("/users")
	{
		users.GET("/me", h.User.GetMe)
		users.GET("/me/usage", h.User.GetUsage)
	}
}
