package routes

import (
	"reflect"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type allRoutes struct {
	log *zap.Logger
}

// Load registers every route on the engine. Route loaders are methods on
// allRoutes; adding a new exported method is all it takes to mount a new
// endpoint.
func Load(log *zap.Logger, r *gin.Engine) {
	log = log.Named("Routes")
	defer log.Info("Loaded all API routes")
	routes := &allRoutes{log: log}
	routesType := reflect.TypeOf(routes)
	routesValue := reflect.ValueOf(routes)
	for i := 0; i < routesType.NumMethod(); i++ {
		routesValue.Method(i).Call([]reflect.Value{reflect.ValueOf(r)})
	}
}
