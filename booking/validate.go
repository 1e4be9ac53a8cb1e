package booking

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func packageValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// Report JSON field names, so errors match what the producer sent.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// ValidatePackage checks the fields the ledger depends on. It does not
// deep-validate dates or itinerary contiguity.
func ValidatePackage(pkg TravelPackage) error {
	if strings.TrimSpace(pkg.BookingPayload) == "" {
		return &MalformedPackageError{Fields: []string{"booking_payload"}}
	}
	err := packageValidator().Struct(pkg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &MalformedPackageError{Fields: []string{err.Error()}}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "TravelPackage.accommodation.name"; drop the type name.
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		fields = append(fields, ns)
	}
	return &MalformedPackageError{Fields: fields}
}
