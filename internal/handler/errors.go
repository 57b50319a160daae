package handler

import (
	"net/http"

	"aklny/internal/apperror"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// respondError writes the envelope for err and attaches err to the context so
// the request logger records the cause.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, res := response.FromError(err)
	c.JSON(status, res)
}

func respondBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// uuidParam parses the named path parameter.
func uuidParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + name)
	}
	return id, nil
}
