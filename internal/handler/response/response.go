// Package response writes API bodies. Successes return the resource JSON
// directly; failures return the error envelope
// {"detail":{"error":{"type","code","message","param",...}}}.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"flowpay/pkg/errno"
)

// OK writes a 200 with the given resource.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 with the newly created resource.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error decodes err into the envelope and writes it with the mapped HTTP
// status. Extra fields ride alongside the fixed ones inside "error".
func Error(c *gin.Context, err error) {
	e := errno.Decode(err)

	body := gin.H{
		"type":    e.Type,
		"code":    e.Code,
		"message": e.Message,
	}
	if e.Param != "" {
		body["param"] = e.Param
	}
	for k, v := range e.Extra {
		body[k] = v
	}

	c.AbortWithStatusJSON(e.HTTPStatus, gin.H{
		"detail": gin.H{"error": body},
	})
}
