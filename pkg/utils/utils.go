package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/vaughnsterling/payments-api/pkg"
	"go.uber.org/zap"
)

// IsEmpty checks if a string is empty.
func IsEmpty(s string) bool {
	return s == ""
}

func GetTraceID(c *gin.Context) (string, error) {
	traceID := c.GetString(pkg.TraceId)
	if IsEmpty(traceID) {
		return "", errors.New("trace id is empty")
	}
	return traceID, nil
}

// ParseStructEnv binds env vars to struct fields using a mapstructure tag
func ParseStructEnv(cfg interface{}) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if err := viper.BindEnv(tag); err != nil {
			return err
		}
	}
	return viper.Unmarshal(cfg)
}

// FormatConfigErrors translates validator failures into a readable list of the
// offending env vars (by mapstructure tag) so operators can fix deployment config.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	var missing []string
	for _, fe := range vErrs {
		envName := fe.Field()
		if field, ok := t.FieldByName(fe.Field()); ok {
			if tag := field.Tag.Get("mapstructure"); tag != "" {
				envName = tag
			}
		}
		missing = append(missing, fmt.Sprintf("%s (%s)", envName, fe.Tag()))
		logger.Error("invalid configuration", zap.String("env", envName), zap.String("rule", fe.Tag()))
	}
	return pkg.NewAppError(pkg.ErrConfigMissingCode, "invalid configuration: "+strings.Join(missing, ", "), err)
}
