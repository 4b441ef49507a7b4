package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

const (
	HeaderAdminCode = "X-Admin-Code"

	claimsKey = "claims"
)

var errMissingToken = errors.New("missing bearer token")

// TokenVerifier resolves a bearer token to claims. Game binding and role checks are left to the
// service operation being called.
type TokenVerifier interface {
	Verify(token, gameID string, roles []domain.Role) (domain.Claims, error)
}

type Authenticator struct {
	verifier TokenVerifier
}

func NewAuthenticator(verifier TokenVerifier) *Authenticator {
	return &Authenticator{
		verifier: verifier,
	}
}

// VerifyJWT rejects requests without a valid access token and stores the claims on the context.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := BearerToken(ctx)
		if !ok {
			response.RenderErr(ctx, response.FromError(apperr.Wrap(apperr.ErrInvalidToken, "", errMissingToken)))
			ctx.Abort()
			return
		}

		claims, err := a.verifier.Verify(token, "", nil)
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			ctx.Abort()
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header. Browsers cannot
// set headers on websocket upgrades, so a token query parameter is accepted as well.
func BearerToken(ctx *gin.Context) (string, bool) {
	header := ctx.GetHeader("Authorization")
	if scheme, token, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		return token, token != ""
	}

	if token := ctx.Query("token"); token != "" {
		return token, true
	}

	return "", false
}

// Claims returns the claims stored by VerifyJWT.
func Claims(ctx *gin.Context) domain.Claims {
	claims, _ := ClaimsOK(ctx)
	return claims
}

// OptionalJWT stores claims when a token is present and rejects the request only if that token is
// invalid. Handlers serving both public and private views use ClaimsOK to tell them apart.
func (a *Authenticator) OptionalJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := BearerToken(ctx)
		if !ok {
			ctx.Next()
			return
		}

		claims, err := a.verifier.Verify(token, "", nil)
		if err != nil {
			response.RenderErr(ctx, response.FromError(err))
			ctx.Abort()
			return
		}

		ctx.Set(claimsKey, claims)
		ctx.Next()
	}
}

func ClaimsOK(ctx *gin.Context) (domain.Claims, bool) {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return domain.Claims{}, false
	}
	claims, ok := v.(domain.Claims)
	return claims, ok
}
