package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
)

// Orchestration error kinds.
var (
	ErrNotFound           = errors.New("workflow not found")
	ErrParse              = errors.New("workflow definition is not valid JSON")
	ErrInvalidDefinition  = errors.New("invalid workflow definition")
	ErrCircularDependency = errors.New("circular workflow dependency")
	ErrInvalidStepIndex   = errors.New("invalid step index")
	ErrStoreUnavailable   = errors.New("workflow store unavailable")
)

var kindSentinels = map[models.ErrorKind]error{
	models.ErrorKindNotFound:           ErrNotFound,
	models.ErrorKindParseError:         ErrParse,
	models.ErrorKindInvalidDefinition:  ErrInvalidDefinition,
	models.ErrorKindCircularDependency: ErrCircularDependency,
	models.ErrorKindInvalidStepIndex:   ErrInvalidStepIndex,
	models.ErrorKindStoreUnavailable:   ErrStoreUnavailable,
}

// Error is a classified orchestration failure for one workflow.
type Error struct {
	Kind     models.ErrorKind
	Workflow string   // Workflow the failure is about; for cycles, the one that closed the loop
	Path     []string // Resolution path leading to Workflow, outermost first
	Message  string
	Err      error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.Message)

	if len(e.Path) > 1 {
		fmt.Fprintf(&b, " (resolution path: %s)", strings.Join(e.Path, " -> "))
	}

	if e.Err != nil && !isSentinel(e.Err) {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind as well as anything it wraps.
func (e *Error) Is(target error) bool {
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}

	return errors.Is(e.Err, target)
}

func isSentinel(err error) bool {
	for _, sentinel := range kindSentinels {
		if err == sentinel {
			return true
		}
	}

	return false
}

func newError(kind models.ErrorKind, workflow, message string, err error) *Error {
	if err == nil {
		err = kindSentinels[kind]
	}

	return &Error{
		Kind:     kind,
		Workflow: workflow,
		Message:  message,
		Err:      err,
	}
}

// StoreError classifies an error returned by a definition store for name.
func StoreError(name string, err error) *Error {
	switch {
	case persistence.IsWorkflowNotFound(err), persistence.IsInvalidWorkflowName(err):
		return newError(models.ErrorKindNotFound, name,
			fmt.Sprintf("workflow %q not found", name), err)
	case persistence.IsMalformedDefinition(err):
		return newError(models.ErrorKindParseError, name,
			fmt.Sprintf("workflow %q could not be parsed", name), err)
	default:
		return newError(models.ErrorKindStoreUnavailable, name,
			fmt.Sprintf("workflow %q could not be read from the store", name), err)
	}
}

// KindOf returns the orchestration kind of err, or "" when err is not classified.
func KindOf(err error) models.ErrorKind {
	var wfErr *Error
	if errors.As(err, &wfErr) {
		return wfErr.Kind
	}

	return ""
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsInvalidDefinition(err error) bool {
	return errors.Is(err, ErrInvalidDefinition)
}

func IsCircularDependency(err error) bool {
	return errors.Is(err, ErrCircularDependency)
}

func IsInvalidStepIndex(err error) bool {
	return errors.Is(err, ErrInvalidStepIndex)
}

// ToFailure turns any error into a failure result with remediation hints.
func ToFailure(err error) *models.Failure {
	if err == nil {
		return nil
	}

	var wfErr *Error
	if !errors.As(err, &wfErr) {
		wfErr = newError(models.ErrorKindStoreUnavailable, "", "unexpected failure", err)
	}

	return &models.Failure{
		Kind:     wfErr.Kind,
		Workflow: wfErr.Workflow,
		Message:  wfErr.Error(),
		Hints:    Hints(wfErr.Kind, wfErr.Workflow),
	}
}

// Hints returns remediation guidance for a failure kind.
func Hints(kind models.ErrorKind, workflow string) []string {
	switch kind {
	case models.ErrorKindNotFound:
		return []string{
			fmt.Sprintf("Check that the definition file for %q exists in the workflows directory.", workflow),
			"Check the spelling of the workflow name and of every sub-workflow reference.",
			"List the available workflows to confirm the name.",
		}
	case models.ErrorKindParseError:
		return []string{
			fmt.Sprintf("Check that the definition of %q is valid JSON (or YAML for .yaml files).", workflow),
			"Look for trailing commas, unquoted keys or unbalanced brackets.",
		}
	case models.ErrorKindInvalidDefinition:
		return []string{
			fmt.Sprintf("Ensure %q has a non-empty \"steps\" array.", workflow),
			"Ensure every step of type \"workflow\" names the sub-workflow to inline.",
			"Run validate on the workflow for a full list of structural problems.",
		}
	case models.ErrorKindCircularDependency:
		return []string{
			fmt.Sprintf("Check for circular dependencies: %q is referenced again while it is still being resolved.", workflow),
			fmt.Sprintf("Remove or replace the workflow step that points back to %q.", workflow),
		}
	case models.ErrorKindInvalidStepIndex:
		return []string{
			"Step indices start at 1.",
			"Omit stepIndex to start from the first step.",
		}
	default:
		return []string{
			"Check that the workflow store is reachable and healthy.",
			"Retry the call once the store is available.",
		}
	}
}
