package handlers

import "github.com/gin-gonic/gin"

// API groups the handlers mounted under /api/v1.
type API struct {
	Properties *PropertyHandler
	Map        *MapHandler
	Views      *ViewHandler
	Searches   *SearchHandler
	Saved      *SavedHandler
	Reports    *ReportHandler
}

// Register mounts every v1 route on rg. rg must already carry the
// identity middleware.
func (a *API) Register(rg *gin.RouterGroup) {
	properties := rg.Group("/properties")
	{
		properties.GET("", a.Properties.List)
		properties.GET("/:id", a.Properties.Get)
	}

	m := rg.Group("/map")
	{
		m.GET("/state", a.Map.State)
		m.PUT("/state", a.Map.ApplyState)
		m.POST("/refresh", a.Map.Refresh)
		m.PUT("/filters", a.Map.ApplyFilters)
		m.PUT("/view", a.Map.SetView)
		m.PUT("/layers/:layer", a.Map.SetLayer)
		m.POST("/layers/:layer/toggle", a.Map.ToggleLayer)
		m.GET("/scene", a.Map.Scene)
		m.GET("/properties", a.Map.Properties)
	}

	views := rg.Group("/views")
	{
		views.GET("", a.Views.List)
		views.POST("", a.Views.Save)
		views.POST("/:id/load", a.Views.Load)
		views.DELETE("/:id", a.Views.Delete)
	}

	searches := rg.Group("/searches")
	{
		searches.GET("", a.Searches.List)
		searches.POST("", a.Searches.Create)
		searches.POST("/:id/apply", a.Searches.Apply)
		searches.DELETE("/:id", a.Searches.Delete)
	}

	bookmarks := rg.Group("/bookmarks")
	{
		bookmarks.GET("", a.Saved.ListBookmarks)
		bookmarks.PUT("/:propertyId", a.Saved.AddBookmark)
		bookmarks.DELETE("/:propertyId", a.Saved.RemoveBookmark)
	}

	favorites := rg.Group("/favorites")
	{
		favorites.GET("", a.Saved.ListFavorites)
		favorites.POST("/:propertyId/toggle", a.Saved.ToggleFavorite)
	}

	reports := rg.Group("/reports")
	{
		reports.POST("/summary", a.Reports.Summary)
		reports.POST("/csv", a.Reports.CSV)
		reports.POST("/pdf", a.Reports.PDF)
	}
}
