package router

import (
	"net/http"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpauth/internal/pkg/config"
)

func middlewareMaintenance(cfg config.Config) Middleware {
	var endpoints map[string]struct{}
	if cfg != nil {
		endpoints = lo.SliceToMap(lo.Compact(lo.Map(cfg.GetArray("app.maintenance.endpoints"), trimItem)),
			func(e string) (string, struct{}) { return e, struct{}{} })
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, blocked := endpoints[matchedRoutePath(r)]; blocked {
				writeJSON(w, errorResponse{Status: "MAINTENANCE", Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
