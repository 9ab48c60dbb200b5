package middlewares

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
)

const CallbackSecretHeader = "x-callback-secret"

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin")
	ctx.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	ctx.Next()
}

// CallbackSecret rejects provider callbacks that do not carry the shared secret.
// An empty secret rejects every request.
func CallbackSecret(secret func() string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		want := secret()
		got := ctx.GetHeader(CallbackSecretHeader)
		if want == "" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			log.Printf("[Callback] rejected request from %s: invalid secret\n", ctx.ClientIP())
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"result": "fail", "message": "Forbidden"})
			return
		}
		ctx.Next()
	}
}

// Maintenance answers 503 while MAINTENANCE_MODE is true.
func Maintenance(ctx *gin.Context) {
	mm := os.Getenv("MAINTENANCE_MODE")
	if mm == "" {
		ctx.Next()
		return
	}
	on, err := strconv.ParseBool(mm)
	if err != nil || on {
		err := errors.New("server is under maintenance")
		log.Println(err.Error())
		ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": err.Error()})
		return
	}
	ctx.Next()
}
