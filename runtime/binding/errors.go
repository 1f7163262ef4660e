package binding

import (
	"fmt"
	"strings"
)

// ErrorCode is a stable identifier for a binding error.
type ErrorCode string

// ErrorCategory groups error codes by the pipeline stage that reports them.
type ErrorCategory string

const (
	// CategoryDeclaration covers errors raised while accumulating metadata (DCL100-199)
	CategoryDeclaration ErrorCategory = "declaration"
	// CategoryCompile covers errors raised while compiling an adapter (CMP200-299)
	CategoryCompile ErrorCategory = "compile"
	// CategoryRuntime covers errors raised at the script boundary (RUN300-399)
	CategoryRuntime ErrorCategory = "runtime"
	// CategoryLoad covers errors raised while installing adapters (LOD400-499)
	CategoryLoad ErrorCategory = "load"
)

const (
	CodeDuplicateField     ErrorCode = "DCL101"
	CodeDuplicateVariant   ErrorCode = "DCL102"
	CodeDuplicateMethod    ErrorCode = "DCL103"
	CodeInvalidDeclaration ErrorCode = "DCL104"

	CodeUnknownType       ErrorCode = "CMP201"
	CodeNameCollision     ErrorCode = "CMP202"
	CodeIncompleteBinding ErrorCode = "CMP203"

	CodeConversion     ErrorCode = "RUN301"
	CodeBorrowConflict ErrorCode = "RUN302"
	CodeUnknownMember  ErrorCode = "RUN303"

	CodeDuplicateGlobal ErrorCode = "LOD401"
)

// Sentinels for errors.Is. A *Error matches a sentinel when the codes agree.
var (
	ErrDuplicateField     = &Error{Code: CodeDuplicateField}
	ErrDuplicateVariant   = &Error{Code: CodeDuplicateVariant}
	ErrDuplicateMethod    = &Error{Code: CodeDuplicateMethod}
	ErrInvalidDeclaration = &Error{Code: CodeInvalidDeclaration}
	ErrUnknownType        = &Error{Code: CodeUnknownType}
	ErrNameCollision      = &Error{Code: CodeNameCollision}
	ErrIncompleteBinding  = &Error{Code: CodeIncompleteBinding}
	ErrConversion         = &Error{Code: CodeConversion}
	ErrBorrowConflict     = &Error{Code: CodeBorrowConflict}
	ErrUnknownMember      = &Error{Code: CodeUnknownMember}
	ErrDuplicateGlobal    = &Error{Code: CodeDuplicateGlobal}
)

// Error is a structured binding error.
type Error struct {
	// Code is the unique error code (e.g. "DCL101")
	Code ErrorCode `json:"code"`
	// Kind is a machine-readable error type identifier
	Kind string `json:"kind"`
	// Category is the pipeline stage that reported the error
	Category ErrorCategory `json:"category"`
	// TypeID is the type the error concerns, if any
	TypeID string `json:"type_id,omitempty"`
	// Name is the member name the error concerns, if any
	Name string `json:"name,omitempty"`
	// Message is the primary error message
	Message string `json:"message"`
	// Suggestion provides a hint for fixing the error (optional)
	Suggestion string `json:"suggestion,omitempty"`
	// Cause is the underlying error (optional)
	Cause error `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Recoverable reports whether the error may be handled by the embedder
// instead of aborting the build. Runtime and load errors are recoverable.
func (e *Error) Recoverable() bool {
	return e.Category == CategoryRuntime || e.Category == CategoryLoad
}

// WithSuggestion sets a suggestion for fixing the error
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithCause sets the underlying cause
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func newError(code ErrorCode, kind string, category ErrorCategory, typeID, name, message string) *Error {
	return &Error{
		Code:     code,
		Kind:     kind,
		Category: category,
		TypeID:   typeID,
		Name:     name,
		Message:  message,
	}
}

// NewDuplicateField creates a DCL101 error
func NewDuplicateField(typeID, name string) *Error {
	return newError(CodeDuplicateField, "duplicate_field", CategoryDeclaration, typeID, name,
		fmt.Sprintf("field '%s' is already declared on %s", name, typeID)).
		WithSuggestion("Rename the field with a lua:\"name\" tag or drop the duplicate declaration")
}

// NewDuplicateVariant creates a DCL102 error
func NewDuplicateVariant(typeID, name string) *Error {
	return newError(CodeDuplicateVariant, "duplicate_variant", CategoryDeclaration, typeID, name,
		fmt.Sprintf("variant '%s' is already declared on %s", name, typeID))
}

// NewDuplicateMethod creates a DCL103 error
func NewDuplicateMethod(typeID, name string) *Error {
	return newError(CodeDuplicateMethod, "duplicate_method", CategoryDeclaration, typeID, name,
		fmt.Sprintf("method '%s' is already declared on %s", name, typeID)).
		WithSuggestion("Static functions and methods share one namespace; rename one of them with //luamagic:name")
}

// NewInvalidDeclaration creates a DCL104 error
func NewInvalidDeclaration(typeID, name, reason string) *Error {
	return newError(CodeInvalidDeclaration, "invalid_declaration", CategoryDeclaration, typeID, name,
		fmt.Sprintf("invalid declaration on %s: %s", displayType(typeID), reason))
}

// NewUnknownType creates a CMP201 error
func NewUnknownType(typeID string) *Error {
	return newError(CodeUnknownType, "unknown_type", CategoryCompile, typeID, "",
		fmt.Sprintf("type %s was never declared", displayType(typeID))).
		WithSuggestion("Annotate the type with //luamagic:structure, //luamagic:enumeration or //luamagic:implementation")
}

// NewNameCollision creates a CMP202 error
func NewNameCollision(typeID, name, first, second string) *Error {
	return newError(CodeNameCollision, "name_collision", CategoryCompile, typeID, name,
		fmt.Sprintf("name '%s' on %s is declared both as a %s and as a %s", name, typeID, first, second))
}

// NewIncompleteBinding creates a CMP203 error
func NewIncompleteBinding(typeID, name, missing string) *Error {
	return newError(CodeIncompleteBinding, "incomplete_binding", CategoryCompile, typeID, name,
		fmt.Sprintf("'%s' on %s has no %s", name, typeID, missing))
}

// NewConversionError creates a RUN301 error
func NewConversionError(from, to, reason string) *Error {
	msg := fmt.Sprintf("cannot convert %s to %s", from, to)
	if reason != "" {
		msg += ": " + reason
	}
	return newError(CodeConversion, "conversion_error", CategoryRuntime, "", "", msg)
}

// NewBorrowConflict creates a RUN302 error
func NewBorrowConflict(typeID string, exclusive bool) *Error {
	mode := "shared"
	if exclusive {
		mode = "exclusive"
	}
	return newError(CodeBorrowConflict, "borrow_conflict", CategoryRuntime, typeID, "",
		fmt.Sprintf("cannot take %s access to %s: handle is already borrowed", mode, typeID))
}

// NewUnknownMember creates a RUN303 error
func NewUnknownMember(typeID, name, reason string) *Error {
	return newError(CodeUnknownMember, "unknown_member", CategoryRuntime, typeID, name,
		fmt.Sprintf("%s.%s %s", typeID, name, reason))
}

// NewDuplicateGlobal creates a LOD401 error
func NewDuplicateGlobal(typeID string) *Error {
	return newError(CodeDuplicateGlobal, "duplicate_global", CategoryLoad, typeID, typeID,
		fmt.Sprintf("global '%s' is already bound and the environment forbids rebinding", typeID))
}

func displayType(typeID string) string {
	if typeID == "" {
		return "<unnamed type>"
	}
	return typeID
}
