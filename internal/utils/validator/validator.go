package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	customErrors "github.com/abisalde/student-portal/internal/errors"
	"github.com/abisalde/student-portal/pkg/whatsapp"
)

const (
	nonBlankTag     = "nonblank"
	emailAddressTag = "email_address"
	whatsappTag     = "whatsapp"
)

// labels turns JSON field names into the words used in messages.
var labels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"whatsapp":        "WhatsApp number",
	"phone":           "Phone number",
	"password":        "Password",
	"newPassword":     "New password",
	"oobCode":         "Verification code",
	"subject":         "Subject",
	"message":         "Message",
	"degree":          "Degree",
	"specialization":  "Specialization",
	"college":         "College",
	"collegeLocation": "College location",
	"currentYear":     "Current year",
	"graduationYear":  "Graduation year",
	"mentorName":      "Mentor name",
	"title":           "Title",
	"sessionType":     "Session type",
	"date":            "Date",
	"time":            "Time",
	"choice":          "Answer",
}

type Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func New() *Validator {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")

	InitValidators(validate, translator)
	return &Validator{validate: validate, translator: translator}
}

// InitValidators registers the portal tags and messages on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(nonBlankTag, nonBlank)
	_ = validate.RegisterValidation(emailAddressTag, emailAddress)
	_ = validate.RegisterValidation(whatsappTag, whatsappNumber)

	RegisterCustomTranslation(validate, translator, nonBlankTag, "{0} is required")
	RegisterCustomTranslation(validate, translator, "required", "{0} is required", true)
	RegisterCustomTranslation(validate, translator, emailAddressTag, "Please enter a valid email address")
	RegisterCustomTranslation(validate, translator, whatsappTag, "Please enter a valid WhatsApp number with country code")
}

func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, Label(fe.Field()))
			return s
		},
	)
}

func Label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}

// Struct validates s and returns field scoped messages, or nil when s is valid.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := customErrors.NewValidationError(nil)
	for _, fe := range fieldErrs {
		if _, seen := verr.Fields[fe.Field()]; seen {
			continue
		}
		verr.Add(fe.Field(), fe.Translate(v.translator))
	}
	return verr
}

func nonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func emailAddress(fl validator.FieldLevel) bool {
	return emailRegex.MatchString(fl.Field().String())
}

func whatsappNumber(fl validator.FieldLevel) bool {
	return whatsapp.ValidateNumber(fl.Field().String())
}
