package handler

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags and reports field
// names by their JSON key. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("json_array", jsonStartsWith('['))
		_ = v.RegisterValidation("json_object", jsonStartsWith('{'))
	})
}

// jsonStartsWith accepts valid JSON whose top-level value opens with open,
// or a JSON null, which callers treat as absent.
func jsonStartsWith(open byte) validator.Func {
	return func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Slice {
			return false
		}
		raw := bytes.TrimSpace(field.Bytes())
		if len(raw) == 0 || string(raw) == "null" {
			return true
		}
		return raw[0] == open && json.Valid(raw)
	}
}
