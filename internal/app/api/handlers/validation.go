package handlers

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/fatflowers/caterpay/pkg/types"
)

var registerOnce sync.Once

// RegisterValidators installs custom binding tags on gin's validator engine.
//
//	tier: value must be one of types.KnownTiers
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		err = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
			return types.Tier(fl.Field().String()).IsKnown()
		})
	})
	return err
}
