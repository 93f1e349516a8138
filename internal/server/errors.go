package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	assetdomain "github.com/leadstack/crm/internal/asset/domain"
	auditdomain "github.com/leadstack/crm/internal/audit/domain"
	authdomain "github.com/leadstack/crm/internal/auth/domain"
	"github.com/leadstack/crm/internal/authorization"
	companydomain "github.com/leadstack/crm/internal/company/domain"
	contactdomain "github.com/leadstack/crm/internal/contact/domain"
	employeedomain "github.com/leadstack/crm/internal/employee/domain"
	importerdomain "github.com/leadstack/crm/internal/importer/domain"
	leaddomain "github.com/leadstack/crm/internal/lead/domain"
	notificationdomain "github.com/leadstack/crm/internal/notification/domain"
	onboardingdomain "github.com/leadstack/crm/internal/onboarding/domain"
	orgdomain "github.com/leadstack/crm/internal/organization/domain"
	prospectdomain "github.com/leadstack/crm/internal/prospect/domain"
	reportdomain "github.com/leadstack/crm/internal/report/domain"
	"github.com/leadstack/crm/internal/softdelete"
	suspectdomain "github.com/leadstack/crm/internal/suspect/domain"
	vendordomain "github.com/leadstack/crm/internal/vendors/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Success bool         `json:"success"`
	Error   errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// respondOK writes the success envelope shared by every read and update
// endpoint.
func respondOK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondCreated is respondOK with a 201 for freshly created records.
func respondCreated(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "rate limited",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, employeedomain.ErrUploadFailed):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isAuthValidationError(err),
		isCompanyValidationError(err),
		isContactValidationError(err),
		isSuspectValidationError(err),
		isProspectValidationError(err),
		isLeadValidationError(err),
		isOnboardingValidationError(err),
		isNotificationValidationError(err),
		isAssetValidationError(err),
		isVendorValidationError(err),
		isEmployeeValidationError(err),
		isImportValidationError(err),
		isAuditLogValidationError(err),
		errors.Is(err, reportdomain.ErrInvalidOrganization):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrUserInactive):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidActor),
		errors.Is(err, authdomain.ErrForbidden),
		errors.Is(err, companydomain.ErrForbidden),
		errors.Is(err, contactdomain.ErrForbidden),
		errors.Is(err, suspectdomain.ErrForbidden),
		errors.Is(err, prospectdomain.ErrForbidden),
		errors.Is(err, leaddomain.ErrForbidden),
		errors.Is(err, onboardingdomain.ErrForbidden),
		errors.Is(err, notificationdomain.ErrForbidden),
		errors.Is(err, assetdomain.ErrForbidden),
		errors.Is(err, vendordomain.ErrForbidden),
		errors.Is(err, employeedomain.ErrForbidden),
		errors.Is(err, importerdomain.ErrForbidden),
		errors.Is(err, reportdomain.ErrForbidden):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, suspectdomain.ErrAlreadyConverted),
		errors.Is(err, prospectdomain.ErrProspectWon),
		errors.Is(err, leaddomain.ErrLeadClosed),
		errors.Is(err, leaddomain.ErrStageNotAllowed),
		errors.Is(err, onboardingdomain.ErrAlreadyCompleted),
		errors.Is(err, companydomain.ErrAlreadyAssigned),
		errors.Is(err, assetdomain.ErrTagExists),
		errors.Is(err, assetdomain.ErrAlreadyAssigned),
		errors.Is(err, assetdomain.ErrNotAssigned),
		errors.Is(err, softdelete.ErrNotTrashed),
		errors.Is(err, softdelete.ErrAlreadyTrashed):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, orgdomain.ErrOrganizationNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, companydomain.ErrAssignmentNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, suspectdomain.ErrNotFound),
		errors.Is(err, prospectdomain.ErrNotFound),
		errors.Is(err, leaddomain.ErrNotFound),
		errors.Is(err, onboardingdomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, assetdomain.ErrNotFound),
		errors.Is(err, vendordomain.ErrNotFound),
		errors.Is(err, employeedomain.ErrNotFound),
		errors.Is(err, importerdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isAuditLogValidationError(err error) bool {
	switch err {
	case auditdomain.ErrInvalidOrganization,
		auditdomain.ErrInvalidPageToken,
		auditdomain.ErrInvalidTimeRange,
		auditdomain.ErrInvalidAction:
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
