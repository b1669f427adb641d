package middleware

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/valyala/fasthttp"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func run(authHeader string) (*fasthttp.RequestCtx, string) {
	return runWithIssuer(authHeader, "")
}

func runWithIssuer(authHeader, issuer string) (*fasthttp.RequestCtx, string) {
	ctx := &fasthttp.RequestCtx{}
	if authHeader != "" {
		ctx.Request.Header.Set("Authorization", authHeader)
	}
	var seen string
	JWTAuth(testSecret, issuer, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = UserID(ctx)
		ctx.SetStatusCode(fasthttp.StatusOK)
	})(ctx)
	return ctx, seen
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUser   string
	}{
		{
			name:       "user_id claim",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "u1", "exp": exp}),
			wantStatus: fasthttp.StatusOK,
			wantUser:   "u1",
		},
		{
			name:       "sub claim",
			header:     sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u2", "exp": exp}),
			wantStatus: fasthttp.StatusOK,
			wantUser:   "u2",
		},
		{
			name:       "missing header",
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "u1", "exp": exp}),
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"user_id": "u1", "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: fasthttp.StatusUnauthorized,
		},
		{
			name:       "no identity",
			header:     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"exp": exp}),
			wantStatus: fasthttp.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, user := run(tt.header)
			if got := ctx.Response.StatusCode(); got != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, got)
			}
			if user != tt.wantUser {
				t.Errorf("expected user %q, got %q", tt.wantUser, user)
			}
		})
	}
}

func TestJWTAuthIssuer(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	good := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1", "iss": "taskpulse", "exp": exp})
	other := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1", "iss": "elsewhere", "exp": exp})
	none := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.MapClaims{"sub": "u1", "exp": exp})

	if ctx, user := runWithIssuer(good, "taskpulse"); ctx.Response.StatusCode() != fasthttp.StatusOK || user != "u1" {
		t.Errorf("expected matching issuer to pass, got %d", ctx.Response.StatusCode())
	}
	for name, header := range map[string]string{"other issuer": other, "no issuer": none} {
		if ctx, _ := runWithIssuer(header, "taskpulse"); ctx.Response.StatusCode() != fasthttp.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, ctx.Response.StatusCode())
		}
	}
}
