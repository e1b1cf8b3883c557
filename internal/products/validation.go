package products

import (
	"strings"

	"github.com/expertpos/expert-pos/internal/shared"
)

func normalize(form ProductForm) ProductForm {
	form.SKU = strings.ToUpper(strings.TrimSpace(form.SKU))
	form.Name = strings.TrimSpace(form.Name)
	form.Description = strings.TrimSpace(form.Description)
	return form
}

func validate(form ProductForm) error {
	if err := shared.ValidateStruct(form); err != nil {
		return err
	}
	return shared.ValidateAmount("price", form.Price)
}
