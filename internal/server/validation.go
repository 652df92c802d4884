package server

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/branchd-dev/adminconsole/internal/models"
)

var registerOnce sync.Once

// registerValidators adds the customer rules to gin's binding validator and
// returns it, so handlers and request binding share one engine
func registerValidators() (*validator.Validate, error) {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected binding validator engine %T", binding.Validator.Engine())
	}

	var err error
	registerOnce.Do(func() {
		err = validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			return slices.Contains(models.Genders, fl.Field().String())
		})
		if err != nil {
			return
		}
		err = validate.RegisterValidation("customer_status", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return value == models.StatusActive || value == models.StatusInactive
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return validate, nil
}
