package model

import (
	"os"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidations 向gin的绑定引擎注册自定义校验规则
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("dirpath", validateDirPath)
}

// validateDirPath 校验字段值是一个存在的目录
func validateDirPath(fl validator.FieldLevel) bool {
	info, err := os.Stat(fl.Field().String())
	if err != nil {
		return false
	}
	return info.IsDir()
}
