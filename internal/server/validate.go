package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/claude/perfutils/internal/models"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("item_type", itemTypeValidator)
	return v
}

func itemTypeValidator(fl validator.FieldLevel) bool {
	_, ok := models.NormalizeItemType(fl.Field().String())
	return ok
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
