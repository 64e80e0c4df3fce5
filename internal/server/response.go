package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// errInvalidBody is reported for unreadable request bodies.
var errInvalidBody = errors.New("corpo da requisição JSON inválido")

// bindJSON decodes the request body into v. An empty body leaves v untouched.
func bindJSON(c *gin.Context, v interface{}) error {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New("corpo da requisição excede o limite permitido")
		}
		return errInvalidBody
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errInvalidBody
	}
	return nil
}

// respondError writes {"error": msg} and records err on the context.
func respondError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// Weights endpoints keep the dashboard's status envelope.
const (
	statusOK    = "sucesso"
	statusError = "erro"
)

func respondEnvelopeError(c *gin.Context, status int, msg string, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"status": statusError, "mensagem": msg})
}
