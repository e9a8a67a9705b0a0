package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"
	ErrTokenRevoked       ErrCode = "TOKEN_REVOKED"
	ErrEmailTaken         ErrCode = "EMAIL_TAKEN"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrAccountRequired  ErrCode = "ACCOUNT_REQUIRED"
	ErrInstructorOnly   ErrCode = "INSTRUCTOR_ACCESS_ONLY"
	ErrInvalidLearnerID ErrCode = "INVALID_LEARNER_ID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidAnswer  ErrCode = "INVALID_ANSWER"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound        ErrCode = "NOT_FOUND"
	ErrConflict        ErrCode = "CONFLICT"
	ErrActionForbidden ErrCode = "ACTION_FORBIDDEN"

	// ─── Assessment ────────────────────────────────────────────────────
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrQuestionNotFound  ErrCode = "QUESTION_NOT_FOUND"
	ErrAuthorModeOff     ErrCode = "AUTHOR_MODE_OFF"
	ErrInvalidQuestion   ErrCode = "INVALID_QUESTION"
	ErrBankVersionExists ErrCode = "BANK_VERSION_EXISTS"
	ErrRemoteUnavailable ErrCode = "REMOTE_BANK_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Incorrect email or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."
	case ErrTokenRevoked:
		return "You have been signed out. Please sign in again."
	case ErrEmailTaken:
		return "An account with this email already exists."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrAccountRequired:
		return "Sign in to use this feature."
	case ErrInstructorOnly:
		return "This resource is limited to instructors and administrators."
	case ErrInvalidLearnerID:
		return "The learner ID header must be a UUID."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrInvalidAnswer:
		return "An answer could not be read."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."
	case ErrActionForbidden:
		return "This action is not allowed."

	// ─── Assessment ────────────────────────────────────────────────────
	case ErrSessionNotFound:
		return "The session does not exist, has expired or was already submitted."
	case ErrQuestionNotFound:
		return "The question is not in your bank."
	case ErrAuthorModeOff:
		return "Turn on author mode in settings to edit your question bank."
	case ErrInvalidQuestion:
		return "The question is not valid."
	case ErrBankVersionExists:
		return "A bank with this version has already been published."
	case ErrRemoteUnavailable:
		return "Publishing is not available on this server."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
