package middleware

import (
	"context"
	"net/http"

	"monetadirect/internal/auth"
	"monetadirect/internal/logger"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

type contextKey string

const TokenClaimsKey contextKey = "operatorClaims"

// RequireOperator lets the request through only with a valid operator token.
func RequireOperator(issuer *auth.Issuer, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenStr := auth.ExtractAccessToken(r)
		if tokenStr == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := issuer.Parse(tokenStr)
		if err != nil {
			logger.FromCtx(r.Context()).Warn("Operator token rejected", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TokenClaimsKey, claims)
		next(w, r.WithContext(ctx), ps)
	}
}

func OperatorFromContext(ctx context.Context) (*auth.OperatorClaims, bool) {
	claims, ok := ctx.Value(TokenClaimsKey).(*auth.OperatorClaims)
	return claims, ok
}
