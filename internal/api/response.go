// internal/api/response.go
package api

import (
	"errors"
	"net/http"

	apperrors "stayease/internal/common/errors"

	"github.com/gin-gonic/gin"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Code     apperrors.ErrorCode    `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func jsonSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

func jsonError(c *gin.Context, err error) {
	stdErr := toStandardError(err)
	status := apperrors.HTTPStatus(stdErr.Code)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": errorBody{
			Code:     stdErr.Code,
			Message:  stdErr.Message,
			Details:  stdErr.Details,
			Metadata: stdErr.Metadata,
		},
	})
}

func badRequest(c *gin.Context, err error) {
	jsonError(c, errors.Join(errBadRequest, err))
}

func ok(c *gin.Context, data interface{}) {
	jsonSuccess(c, http.StatusOK, data)
}
