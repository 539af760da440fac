package auth

import (
	"strings"
	"structured-docs/internal/errors"
	"structured-docs/redis"

	"github.com/gin-gonic/gin"
)

func AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		// verify token
		token := strings.TrimPrefix(authHeader, "Bearer ")
		parsedToken, err := VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, err := UserIDFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		// check the session store when redis is available
		if redis.Client() != nil {
			exists, err := redis.Client().Exists(ctx.Request.Context(), sessionKey(token)).Result()
			if err != nil || exists == 0 {
				ctx.Error(errors.Unauthorized("Token expired or not found", err))
				ctx.Abort()
				return
			}
		}

		ctx.Set("user_id", userID)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

func sessionKey(token string) string {
	return "session:" + token
}

// SessionKey exposes the session key format to the user handler (login/logout)
func SessionKey(token string) string {
	return sessionKey(token)
}
