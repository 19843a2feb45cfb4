// Package access holds the single permission policy shared by every entry
// point that reads or mutates the employee directory.
package access

import "net/http"

// Principal is an authenticated identity. A nil Principal is anonymous.
type Principal interface {
	IsAdministrator() bool
	IsManager() bool
	IsViewer() bool
}

// Operation is the kind of work a request asks for.
type Operation int

const (
	OperationRead Operation = iota
	OperationCreate
	OperationUpdate
	OperationDelete
	OperationExport
)

func (o Operation) String() string {
	switch o {
	case OperationRead:
		return "read"
	case OperationCreate:
		return "create"
	case OperationUpdate:
		return "update"
	case OperationDelete:
		return "delete"
	case OperationExport:
		return "export"
	default:
		return "unknown"
	}
}

// Allow decides whether p may perform op on directory resources
// (employees, regions, the password generator).
//
//	administrator: everything
//	manager:       read, create, update, export
//	viewer:        read
//
// Anonymous principals and principals with no recognised role get nothing.
func Allow(p Principal, op Operation) bool {
	if p == nil {
		return false
	}

	if p.IsAdministrator() {
		return op >= OperationRead && op <= OperationExport
	}

	if p.IsManager() {
		switch op {
		case OperationRead, OperationCreate, OperationUpdate, OperationExport:
			return true
		default:
			return false
		}
	}

	if p.IsViewer() {
		return op == OperationRead
	}

	return false
}

// AllowAdministration gates user management, password policy edits and
// audit reads.
func AllowAdministration(p Principal) bool {
	return p != nil && p.IsAdministrator()
}

// OperationForMethod maps an HTTP method onto an operation kind. Unknown
// methods are treated as deletes so they fall under the strictest rule.
func OperationForMethod(method string) Operation {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return OperationRead
	case http.MethodPost:
		return OperationCreate
	case http.MethodPut, http.MethodPatch:
		return OperationUpdate
	default:
		return OperationDelete
	}
}
