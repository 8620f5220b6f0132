package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const Greeting = "Hi, I'm here"

// HealthCheck answers liveness probes with 200 and an empty body.
func HealthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

func Index(c *gin.Context) {
	c.String(http.StatusOK, Greeting)
}
