package request

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/edvin/bgpvpn/internal/bgp"
)

var validate = validator.New()

func init() {
	validate.RegisterValidation("route_target", func(fl validator.FieldLevel) bool {
		return bgp.ValidateRouteTarget(fl.Field().String()) == nil
	})
	validate.RegisterValidation("route_distinguisher", func(fl validator.FieldLevel) bool {
		return bgp.ValidateRouteDistinguisher(fl.Field().String()) == nil
	})
}

func Decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	return nil
}

func RequireID(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("missing required ID")
	}
	return s, nil
}
