package v1

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/greathunt/game-engine/internal/api/handler/v1/request"
	"github.com/greathunt/game-engine/internal/api/handler/v1/response"
	"github.com/greathunt/game-engine/internal/api/middleware"
	"github.com/greathunt/game-engine/internal/domain"
	"github.com/greathunt/game-engine/internal/pkg/apperr"
)

// privateView reports whether ?public=false was asked for and returns the caller's claims if so.
// A private view without a token is rejected.
func privateView(ctx *gin.Context) (domain.Claims, bool, *response.Err) {
	if ctx.Query("public") != "false" {
		return domain.Claims{}, false, nil
	}

	claims, ok := middleware.ClaimsOK(ctx)
	if !ok {
		return domain.Claims{}, true, response.FromError(apperr.Detail(apperr.ErrInvalidToken, "private view requires a token"))
	}

	return claims, true, nil
}

// pathIDs validates the named uuid path parameters and returns them in order.
func pathIDs(ctx *gin.Context, names ...string) ([]string, *response.Err) {
	ids := make([]string, len(names))
	for i, name := range names {
		id := ctx.Param(name)
		if err := request.ValidateID(id); err != nil {
			return nil, response.ErrBadRequest(fmt.Errorf("%s: %w", name, err))
		}
		ids[i] = id
	}
	return ids, nil
}
