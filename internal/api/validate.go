package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Spok95/family-score/internal/apperr"
)

// requestValidator: validator с английскими сообщениями и именами полей из json-тегов.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newValidator() *requestValidator {
	v := validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	tr, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, tr)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: v, translator: tr}
}

func (rv *requestValidator) Validate(i any) error {
	return rv.validate.Struct(i)
}

// fields переводит ошибки validator в карту поле → сообщение.
func (rv *requestValidator) fields(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Translate(rv.translator)
	}
	return out
}

// bind разбирает тело и проверяет его; битый JSON: ошибка валидации, а не 500.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return apperr.Validation("invalid request body")
		}
		return errors.Wrap(err, "binding request")
	}
	return c.Validate(dst)
}
