package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/conn2db/internal/errs"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var uniqueKeySuffix = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// generateErrorCode creates consistent application error codes from DB errors.
//
// Output format:
//
//	<DOMAIN>_<ACTION>
//
// Example:
//
//	users + UniqueViolation => USER_ALREADY_EXISTS
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)

	// Naive singularization: "USERS" -> "USER".
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "error"
	switch errType {
	case ForeignKeyViolation:
		action = "not found"
	case UniqueViolation:
		action = "already exists"
	case NotNullViolation:
		action = "required"
	case CheckViolation:
		action = "invalid"
	case SyntaxError:
		action = "invalid statement"
	case UndefinedTable, UndefinedColumn:
		action = "undefined"
	}

	return errs.MakeUpperCaseWithUnderscores(domain + " " + action)
}

// formatUserFriendlyMessage produces a caller-facing message for sqlErr.
func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is replaced by the column when it can be inferred.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	case SyntaxError:
		return "The statement could not be parsed"

	case UndefinedTable:
		if sqlErr.TableName != "" {
			return fmt.Sprintf("The table %s does not exist", sqlErr.TableName)
		}
		return "The referenced table does not exist"

	case UndefinedColumn:
		if sqlErr.ColumnName != "" {
			return fmt.Sprintf("The column %s does not exist", sqlErr.ColumnName)
		}
		return "The referenced column does not exist"

	default:
		return "An error occurred while executing the statement"
	}
}

// getEntityName tries to infer an entity name from table/column data.
//
// Priority rules:
//  1. If column ends with "_id", use that base name. (Best for FK relations)
//     e.g. "user_id" -> "User"
//  2. Otherwise use table name, singularized if it ends with "s".
//  3. Otherwise fallback to "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case: "first_name" -> "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation tries to infer the column name from a unique constraint name.
//
// It supports two conventions:
//
//  1. "unique_<table>_<column>"
//     Example: unique_users_email -> "email"
//
//  2. "<table>_<column>_(key|ukey)"
//     Example: users_email_key -> "email"
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	matches := uniqueKeySuffix.FindStringSubmatch(constraintName)
	if len(matches) > 1 {
		return matches[1]
	}

	return ""
}

// HandleError converts a low-level database error into a query error.
//
// Output:
//   - nil stays nil
//   - an *errs.Error is returned unchanged
//   - a recognized driver error becomes a query error with a generated code
//     (e.g. USER_ALREADY_EXISTS) and a friendly message
//   - anything else becomes a generic query error wrapping err
func HandleError(op string, err error) error {
	if err == nil {
		return nil
	}

	var dbErr *errs.Error
	if errors.As(err, &dbErr) {
		return err
	}

	sqlErr, ok := Convert(err)
	if !ok {
		return errs.NewQueryError(op, "", "", err)
	}

	errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	userMessage := formatUserFriendlyMessage(sqlErr)

	if sqlErr.Code == UniqueViolation {
		columnName := sqlErr.ColumnName
		if columnName == "" {
			columnName = extractColumnForUniqueViolation(sqlErr.ConstraintName)
		}
		if columnName != "" {
			userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(columnName))
		}
	}

	if sqlErr.Code == Other {
		errorCode = ""
	}

	return errs.NewQueryError(op, errorCode, userMessage, sqlErr)
}
