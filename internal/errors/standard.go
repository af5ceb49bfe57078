// Package errors provides the structured error taxonomy shared by every kernel package.
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorCategory groups error codes by the kernel component that raises them.
type ErrorCategory string

const (
	CategoryTyping       ErrorCategory = "TYPING"
	CategoryKind         ErrorCategory = "KIND"
	CategoryUnification  ErrorCategory = "UNIFICATION"
	CategorySubstitution ErrorCategory = "SUBSTITUTION"
	CategoryPattern      ErrorCategory = "PATTERN"
	CategoryInductive    ErrorCategory = "INDUCTIVE"
	CategoryReduction    ErrorCategory = "REDUCTION"
	CategoryRegistry     ErrorCategory = "REGISTRY"
)

// Code identifies one error kind of the taxonomy.
type Code string

const (
	CodeUnboundVariable        Code = "UNBOUND_VARIABLE"
	CodeUnboundTypeVariable    Code = "UNBOUND_TYPE_VARIABLE"
	CodeTypeMismatch           Code = "TYPE_MISMATCH"
	CodeKindMismatch           Code = "KIND_MISMATCH"
	CodeInvalidApplication     Code = "INVALID_APPLICATION"
	CodeInvalidTypeApplication Code = "INVALID_TYPE_APPLICATION"
	CodeNotAType               Code = "NOT_A_TYPE"
	CodeUnsupportedTerm        Code = "UNSUPPORTED_TERM"
	CodeOccursCheckFailed      Code = "OCCURS_CHECK_FAILED"
	CodeTermsCannotUnify       Code = "TERMS_CANNOT_UNIFY"
	CodeVariableAlreadyMapped  Code = "VARIABLE_ALREADY_MAPPED"
	CodeConstructorMismatch    Code = "CONSTRUCTOR_MISMATCH"
	CodeNoMatchingClause       Code = "NO_MATCHING_CLAUSE"
	CodeNonExhaustive          Code = "NON_EXHAUSTIVE"
	CodeStuckScrutinee         Code = "STUCK_SCRUTINEE"
	CodeBoundExceeded          Code = "BOUND_EXCEEDED"
	CodeIllFormedInductive     Code = "ILL_FORMED_INDUCTIVE"
	CodeDuplicateDeclaration   Code = "DUPLICATE_DECLARATION"
	CodeTheoremNotFound        Code = "THEOREM_NOT_FOUND"
	CodeTheoremRejected        Code = "THEOREM_REJECTED"
)

// KernelError provides a consistent error format for the kernel.
type KernelError struct {
	Category ErrorCategory
	Code     Code
	Message  string
	Context  map[string]interface{}
	Caller   string
}

// Error implements the error interface
func (e *KernelError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Is reports whether target is a KernelError carrying the same code.
func (e *KernelError) Is(target error) bool {
	t, ok := target.(*KernelError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewKernelError creates a new structured error, recording the calling function.
func NewKernelError(category ErrorCategory, code Code, message string, context map[string]interface{}) *KernelError {
	pc, _, _, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &KernelError{
		Category: category,
		Code:     code,
		Message:  message,
		Context:  context,
		Caller:   caller,
	}
}

// CodeOf extracts the code of the first KernelError in err's chain.
func CodeOf(err error) (Code, bool) {
	var ke *KernelError
	if errors.As(err, &ke) {
		return ke.Code, true
	}
	return "", false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	c, ok := CodeOf(err)
	return ok && c == code
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnboundVariable        = &KernelError{Category: CategoryTyping, Code: CodeUnboundVariable}
	ErrUnboundTypeVariable    = &KernelError{Category: CategoryTyping, Code: CodeUnboundTypeVariable}
	ErrTypeMismatch           = &KernelError{Category: CategoryTyping, Code: CodeTypeMismatch}
	ErrKindMismatch           = &KernelError{Category: CategoryKind, Code: CodeKindMismatch}
	ErrInvalidApplication     = &KernelError{Category: CategoryTyping, Code: CodeInvalidApplication}
	ErrInvalidTypeApplication = &KernelError{Category: CategoryTyping, Code: CodeInvalidTypeApplication}
	ErrNotAType               = &KernelError{Category: CategoryTyping, Code: CodeNotAType}
	ErrUnsupportedTerm        = &KernelError{Category: CategoryTyping, Code: CodeUnsupportedTerm}
	ErrOccursCheckFailed      = &KernelError{Category: CategoryUnification, Code: CodeOccursCheckFailed}
	ErrTermsCannotUnify       = &KernelError{Category: CategoryUnification, Code: CodeTermsCannotUnify}
	ErrVariableAlreadyMapped  = &KernelError{Category: CategorySubstitution, Code: CodeVariableAlreadyMapped}
	ErrConstructorMismatch    = &KernelError{Category: CategoryPattern, Code: CodeConstructorMismatch}
	ErrNoMatchingClause       = &KernelError{Category: CategoryPattern, Code: CodeNoMatchingClause}
	ErrNonExhaustive          = &KernelError{Category: CategoryPattern, Code: CodeNonExhaustive}
	ErrStuckScrutinee         = &KernelError{Category: CategoryPattern, Code: CodeStuckScrutinee}
	ErrBoundExceeded          = &KernelError{Category: CategoryUnification, Code: CodeBoundExceeded}
	ErrIllFormedInductive     = &KernelError{Category: CategoryInductive, Code: CodeIllFormedInductive}
	ErrDuplicateDeclaration   = &KernelError{Category: CategoryInductive, Code: CodeDuplicateDeclaration}
	ErrTheoremNotFound        = &KernelError{Category: CategoryRegistry, Code: CodeTheoremNotFound}
	ErrTheoremRejected        = &KernelError{Category: CategoryRegistry, Code: CodeTheoremRejected}
)

// Common error constructors

func UnboundVariable(name string) *KernelError {
	return NewKernelError(CategoryTyping, CodeUnboundVariable,
		fmt.Sprintf("unbound variable %s", name),
		map[string]interface{}{"name": name})
}

func UnboundTypeVariable(name string) *KernelError {
	return NewKernelError(CategoryTyping, CodeUnboundTypeVariable,
		fmt.Sprintf("unbound type variable %s", name),
		map[string]interface{}{"name": name})
}

func TypeMismatch(expected, found fmt.Stringer) *KernelError {
	return NewKernelError(CategoryTyping, CodeTypeMismatch,
		fmt.Sprintf("type mismatch: expected %s, found %s", expected, found),
		map[string]interface{}{"expected": expected, "found": found})
}

func KindMismatch(expected, found fmt.Stringer) *KernelError {
	return NewKernelError(CategoryKind, CodeKindMismatch,
		fmt.Sprintf("kind mismatch: expected %s, found %s", expected, found),
		map[string]interface{}{"expected": expected, "found": found})
}

func InvalidApplication(fn, fnType fmt.Stringer) *KernelError {
	return NewKernelError(CategoryTyping, CodeInvalidApplication,
		fmt.Sprintf("cannot apply %s of non-function type %s", fn, fnType),
		map[string]interface{}{"function": fn, "type": fnType})
}

func InvalidTypeApplication(fn, fnType fmt.Stringer) *KernelError {
	return NewKernelError(CategoryTyping, CodeInvalidTypeApplication,
		fmt.Sprintf("cannot instantiate %s of non-universal type %s", fn, fnType),
		map[string]interface{}{"term": fn, "type": fnType})
}

func NotAType(term, classifier fmt.Stringer) *KernelError {
	return NewKernelError(CategoryTyping, CodeNotAType,
		fmt.Sprintf("%s is not a type (classified by %s)", term, classifier),
		map[string]interface{}{"term": term, "classifier": classifier})
}

func UnsupportedTerm(calculus string, term fmt.Stringer) *KernelError {
	return NewKernelError(CategoryTyping, CodeUnsupportedTerm,
		fmt.Sprintf("%s does not support term %s", calculus, term),
		map[string]interface{}{"calculus": calculus, "term": term})
}

func OccursCheckFailed(name string, term fmt.Stringer) *KernelError {
	return NewKernelError(CategoryUnification, CodeOccursCheckFailed,
		fmt.Sprintf("occurs check failed: %s occurs in %s", name, term),
		map[string]interface{}{"variable": name, "term": term})
}

func TermsCannotUnify(left, right fmt.Stringer) *KernelError {
	return NewKernelError(CategoryUnification, CodeTermsCannotUnify,
		fmt.Sprintf("cannot unify %s with %s", left, right),
		map[string]interface{}{"left": left, "right": right})
}

func VariableAlreadyMapped(name string) *KernelError {
	return NewKernelError(CategorySubstitution, CodeVariableAlreadyMapped,
		fmt.Sprintf("variable %s is already mapped", name),
		map[string]interface{}{"name": name})
}

func ConstructorMismatch(expected, found string) *KernelError {
	return NewKernelError(CategoryPattern, CodeConstructorMismatch,
		fmt.Sprintf("constructor mismatch: expected %s, found %s", expected, found),
		map[string]interface{}{"expected": expected, "found": found})
}

func NoMatchingClause(scrutinee fmt.Stringer) *KernelError {
	return NewKernelError(CategoryPattern, CodeNoMatchingClause,
		fmt.Sprintf("no clause matches %s", scrutinee),
		map[string]interface{}{"scrutinee": scrutinee})
}

func NonExhaustive(typeName string, missing fmt.Stringer) *KernelError {
	return NewKernelError(CategoryPattern, CodeNonExhaustive,
		fmt.Sprintf("non-exhaustive match on %s: missing %s", typeName, missing),
		map[string]interface{}{"type": typeName, "missing": missing})
}

func StuckScrutinee(scrutinee fmt.Stringer) *KernelError {
	return NewKernelError(CategoryPattern, CodeStuckScrutinee,
		fmt.Sprintf("scrutinee %s is not in constructor form", scrutinee),
		map[string]interface{}{"scrutinee": scrutinee})
}

func BoundExceeded(what string, limit int) *KernelError {
	return NewKernelError(CategoryUnification, CodeBoundExceeded,
		fmt.Sprintf("%s exceeded bound of %d", what, limit),
		map[string]interface{}{"what": what, "limit": limit})
}

func IllFormedInductive(name, reason string) *KernelError {
	return NewKernelError(CategoryInductive, CodeIllFormedInductive,
		fmt.Sprintf("inductive %s is ill-formed: %s", name, reason),
		map[string]interface{}{"name": name, "reason": reason})
}

func DuplicateDeclaration(name string) *KernelError {
	return NewKernelError(CategoryInductive, CodeDuplicateDeclaration,
		fmt.Sprintf("%s is already declared", name),
		map[string]interface{}{"name": name})
}

func TheoremNotFound(name, constraint string) *KernelError {
	return NewKernelError(CategoryRegistry, CodeTheoremNotFound,
		fmt.Sprintf("no theorem %s satisfying %q", name, constraint),
		map[string]interface{}{"name": name, "constraint": constraint})
}

func TheoremRejected(name string, cause error) *KernelError {
	return NewKernelError(CategoryRegistry, CodeTheoremRejected,
		fmt.Sprintf("theorem %s rejected: %v", name, cause),
		map[string]interface{}{"name": name, "cause": cause})
}
