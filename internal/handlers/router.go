package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iqac-kare/feedback-dashboard/internal/services"
	"github.com/iqac-kare/feedback-dashboard/internal/utils"
)

type HandlerManager struct {
	activityHandler *ActivityHandler
	uploadHandler   *UploadHandler
	analysisHandler *AnalysisHandler
	questionHandler *QuestionHandler
	reportHandler   *ReportHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		activityHandler: NewActivityHandler(serviceManager.Activity(), logger),
		uploadHandler:   NewUploadHandler(serviceManager.Upload(), logger),
		analysisHandler: NewAnalysisHandler(
			serviceManager.Filter(),
			serviceManager.Analysis(),
			serviceManager.Report(),
			serviceManager.Export(),
			logger,
		),
		questionHandler: NewQuestionHandler(serviceManager.Question(), logger),
		reportHandler:   NewReportHandler(serviceManager.Report(), logger),
	}
}

// SetupRoutes sets up the dashboard screens and the JSON API
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	// Dashboard screens
	router.GET("/", hm.activityHandler.Home)
	router.GET("/upload", hm.uploadHandler.UploadPage)
	router.POST("/upload", hm.uploadHandler.SubmitUpload)

	analysis := router.Group("/analysis")
	{
		analysis.GET("", hm.analysisHandler.FilterPage)
		analysis.POST("/filter", hm.analysisHandler.ApplyFilter)
		analysis.POST("/select", hm.analysisHandler.SelectFaculty)
		analysis.POST("/report", hm.analysisHandler.FilterReport)
		analysis.POST("/reset", hm.analysisHandler.ResetFilters)

		analysis.GET("/results", hm.analysisHandler.ResultsPage)
		analysis.POST("/results/back", hm.analysisHandler.BackToFilters)
		analysis.POST("/results/report", hm.analysisHandler.ResultsReport)
		analysis.GET("/results/export", hm.analysisHandler.ResultsExport)
	}

	questions := router.Group("/questions")
	{
		questions.GET("", hm.questionHandler.QuestionsPage)
		questions.GET("/:id/edit", hm.questionHandler.EditQuestionPage)
		questions.POST("/:id/delete", hm.questionHandler.DeleteQuestionForm)
		questions.POST("/save", hm.questionHandler.SaveQuestion)
		questions.POST("/cancel", hm.questionHandler.CancelEdit)
		questions.POST("/options/add", hm.questionHandler.AddOption)
		questions.POST("/options/remove", hm.questionHandler.RemoveOption)
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		filters := v1.Group("/filters")
		{
			filters.GET("/options", hm.analysisHandler.GetFilterOptions)
			filters.GET("/faculty", hm.analysisHandler.GetFaculty)
		}

		v1.GET("/analysis", hm.analysisHandler.GetAnalysis)
		v1.POST("/scores", hm.analysisHandler.ComputeScores)
		v1.POST("/scores/export", hm.analysisHandler.ExportScores)

		reports := v1.Group("/reports")
		{
			reports.POST("", hm.reportHandler.GenerateReport)
			reports.POST("/bulk/collect", hm.reportHandler.CollectAnalyses)
		}

		apiQuestions := v1.Group("/questions")
		{
			apiQuestions.GET("", hm.questionHandler.ListQuestions)
			apiQuestions.POST("", hm.questionHandler.CreateQuestion)
			apiQuestions.GET("/:id", hm.questionHandler.GetQuestion)
			apiQuestions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			apiQuestions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		v1.POST("/upload", hm.uploadHandler.Upload)

		activity := v1.Group("/activity")
		{
			activity.GET("", hm.activityHandler.ListActivity)
			activity.GET("/stats", hm.activityHandler.GetActivityStats)
		}
	}
}

// HealthCheck reports service liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "feedback-dashboard",
	})
}
