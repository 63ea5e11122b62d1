package fee

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/ecolage/core"
)

var (
	feeCategoryTag  = "feecategory"
	feeCategoryText = "catégorie de frais invalide"

	recurrenceTag  = "recurrence"
	recurrenceText = "type de récurrence invalide"

	academicYearTag  = "academicyear"
	academicYearText = "l'année scolaire doit être au format AAAA-AAAA (deux années consécutives)"

	academicMonthsTag  = "academicmonths"
	academicMonthsText = "mois exclu inconnu"

	dueDateXorTag  = "duedate_xor_recurrence"
	dueDateXorText = "une échéance unique ou une récurrence doit être définie, pas les deux"

	recurringTypeReqTag  = "recurringtype_required"
	recurringTypeReqText = "le type de récurrence est obligatoire pour un frais récurrent"

	dateWindowTag  = "date_window"
	dateWindowText = "la date de début doit précéder la date de fin"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(feeCategoryTag, feeCategoryValidation)
	core.RegisterCustomTranslation(feeCategoryTag, feeCategoryText)

	_ = core.Validate.RegisterValidation(recurrenceTag, recurrenceValidation)
	core.RegisterCustomTranslation(recurrenceTag, recurrenceText)

	_ = core.Validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(academicYearTag, academicYearText)

	_ = core.Validate.RegisterValidation(academicMonthsTag, academicMonthsValidation)
	core.RegisterCustomTranslation(academicMonthsTag, academicMonthsText)

	core.Validate.RegisterStructValidation(definitionStructValidation, NewDefinition{})
	core.RegisterCustomTranslation(dueDateXorTag, dueDateXorText)
	core.RegisterCustomTranslation(recurringTypeReqTag, recurringTypeReqText)
	core.RegisterCustomTranslation(dateWindowTag, dateWindowText)
}

// Custom Validators

func feeCategoryValidation(fl validator.FieldLevel) bool {
	if cat, ok := fl.Field().Interface().(Category); ok {
		for _, c := range Categories {
			if cat == c {
				return true
			}
		}
	}
	return false
}

func recurrenceValidation(fl validator.FieldLevel) bool {
	if rec, ok := fl.Field().Interface().(Recurrence); ok {
		for _, r := range Recurrences {
			if rec == r {
				return true
			}
		}
	}
	return false
}

func academicYearValidation(fl validator.FieldLevel) bool {
	_, _, err := ParseAcademicYear(fl.Field().String())
	return err == nil
}

// academicMonthsValidation checks that all excluded months are known French
// month names (case-insensitive). Months outside the September–June window
// (Juillet, Août) are accepted and simply have no effect on generation.
func academicMonthsValidation(fl validator.FieldLevel) bool {
	months, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, m := range months {
		if !IsFrenchMonth(m) {
			return false
		}
	}
	return true
}

// definitionStructValidation enforces the definition-level invariants:
// exactly one of {single due date} or {recurring with a recurrence type},
// and a coherent start/end window.
func definitionStructValidation(sl validator.StructLevel) {
	nd, ok := sl.Current().Interface().(NewDefinition)
	if !ok {
		return
	}

	if nd.IsRecurring {
		if nd.RecurringType == "" {
			sl.ReportError(nd.RecurringType, "recurring_type", "RecurringType", recurringTypeReqTag, "")
		}
		if nd.DueDate != nil {
			sl.ReportError(nd.DueDate, "due_date", "DueDate", dueDateXorTag, "")
		}
	} else {
		if nd.DueDate == nil {
			sl.ReportError(nd.DueDate, "due_date", "DueDate", dueDateXorTag, "")
		}
		if nd.RecurringType != "" {
			sl.ReportError(nd.RecurringType, "recurring_type", "RecurringType", dueDateXorTag, "")
		}
	}

	if nd.StartDate != nil && nd.EndDate != nil && nd.EndDate.Before(*nd.StartDate) {
		sl.ReportError(nd.StartDate, "start_date", "StartDate", dateWindowTag, "")
	}
}
