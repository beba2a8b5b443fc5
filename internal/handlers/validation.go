package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Ticker symbols as Yahoo knows them: an uppercase root, optionally followed
// by an exchange suffix such as .TO or .V.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{0,9}(\.[A-Z]{1,4})?$`)

func validTickerSymbol(fl validator.FieldLevel) bool {
	return tickerPattern.MatchString(fl.Field().String())
}

// registerCustomValidations attaches our binding validations to gin's
// validator engine. Must run before any route binds a request.
func registerCustomValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("tickersymbol", validTickerSymbol)
	}
}
