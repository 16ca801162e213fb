package v1

import "github.com/gin-gonic/gin"

// ServerInterface is implemented by the handlers serving the v1 api.
type ServerInterface interface {
	// (GET /collections)
	ListCollections(c *gin.Context)
	// (POST /collections)
	StartCollection(c *gin.Context)
	// (GET /collections/{id})
	GetCollection(c *gin.Context, id string)
	// (DELETE /collections/{id})
	StopCollection(c *gin.Context, id string)
}

// RegisterHandlers mounts every v1 route on router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	router.GET("/collections", si.ListCollections)
	router.POST("/collections", si.StartCollection)
	router.GET("/collections/:id", func(c *gin.Context) {
		si.GetCollection(c, c.Param("id"))
	})
	router.DELETE("/collections/:id", func(c *gin.Context) {
		si.StopCollection(c, c.Param("id"))
	})
}
