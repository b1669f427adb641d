package middleware

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskpulse/pkg/httpcontext"
)

// UserID returns the user id set by JWTAuth, or "".
func UserID(ctx *fasthttp.RequestCtx) string {
	return httpcontext.UserID(ctx)
}

// JWTAuth accepts HMAC-signed tokens and exposes the user_id (or sub) claim via UserID.
// When issuer is set the iss claim must match it.
func JWTAuth(secret, issuer string, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				logger.Warn("invalid jwt token", zap.Error(err))
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}

			if issuer != "" {
				if claims, ok := token.Claims.(jwt.MapClaims); !ok || !claims.VerifyIssuer(issuer, true) {
					logger.Warn("jwt token from unexpected issuer")
					ctx.SetStatusCode(fasthttp.StatusUnauthorized)
					return
				}
			}

			userID := subject(token)
			if userID == "" {
				logger.Warn("jwt token without user id")
				ctx.SetStatusCode(fasthttp.StatusUnauthorized)
				return
			}
			httpcontext.SetUserID(ctx, userID)

			next(ctx)
		}
	}
}

func subject(token *jwt.Token) string {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	if userID, ok := claims["user_id"].(string); ok && userID != "" {
		return userID
	}
	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
