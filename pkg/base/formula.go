package base

import (
	"fmt"
	"strings"
)

// Formula is a filter expression built by construction, so field values are
// always escaped before they reach the provider's expression language.
type Formula struct {
	expr string
}

func (f Formula) String() string {
	return f.expr
}

func (f Formula) IsZero() bool {
	return f.expr == ""
}

// Raw wraps an already-built expression. Use the constructors below for
// anything containing caller-supplied values.
func Raw(expr string) Formula {
	return Formula{expr: expr}
}

// Eq matches rows where the field equals value exactly.
func Eq(field, value string) Formula {
	return Formula{expr: fmt.Sprintf("{%s}='%s'", field, escape(value))}
}

// Ne matches rows where the field differs from value.
func Ne(field, value string) Formula {
	return Formula{expr: fmt.Sprintf("{%s}!='%s'", field, escape(value))}
}

// Truthy matches rows where a checkbox or computed flag is set.
func Truthy(field string) Formula {
	return Formula{expr: fmt.Sprintf("{%s}", field)}
}

// Blank matches rows where the field is empty.
func Blank(field string) Formula {
	return Formula{expr: fmt.Sprintf("{%s}=''", field)}
}

// FindInJoined matches rows where value appears in the joined rendering of a
// multi-value (e.g. linked-record) field.
func FindInJoined(field, value string) Formula {
	return Formula{expr: fmt.Sprintf("FIND('%s', ARRAYJOIN({%s}))", escape(value), field)}
}

// RecordIDEq matches the single row with the given record id.
func RecordIDEq(id string) Formula {
	return Formula{expr: fmt.Sprintf("RECORD_ID()='%s'", escape(id))}
}

func And(parts ...Formula) Formula {
	return combine("AND", parts)
}

func Or(parts ...Formula) Formula {
	return combine("OR", parts)
}

func Not(part Formula) Formula {
	if part.IsZero() {
		return Formula{}
	}
	return Formula{expr: fmt.Sprintf("NOT(%s)", part.expr)}
}

func combine(op string, parts []Formula) Formula {
	exprs := make([]string, 0, len(parts))
	for _, p := range parts {
		if !p.IsZero() {
			exprs = append(exprs, p.expr)
		}
	}
	switch len(exprs) {
	case 0:
		return Formula{}
	case 1:
		return Formula{expr: exprs[0]}
	}
	return Formula{expr: fmt.Sprintf("%s(%s)", op, strings.Join(exprs, ", "))}
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func escape(value string) string {
	return valueEscaper.Replace(value)
}
