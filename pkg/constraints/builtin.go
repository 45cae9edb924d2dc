package constraints

import (
	"fmt"
	"reflect"
	"regexp"

	bverror "github.com/msto63/beanval/foundation/core/error"
)

// Built-in constraint kinds.
const (
	KindMandatory = "mandatory"
	KindNotEmpty  = "notEmpty"
	KindMinValue  = "minValue"
	KindMaxValue  = "maxValue"
	KindMinLength = "minLength"
	KindMaxLength = "maxLength"
	KindSize      = "size"
	KindPattern   = "pattern"
	KindEmail     = "email"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func builtins() []Definition {
	return []Definition{
		{Kind: KindMandatory, Message: "must not be empty", New: newMandatory},
		{Kind: KindNotEmpty, Message: "must not be empty", New: newNotEmpty},
		{Kind: KindMinValue, Params: []string{"min"}, Message: "must be greater than or equal to {min}", New: newMinValue},
		{Kind: KindMaxValue, Params: []string{"max"}, Message: "must be less than or equal to {max}", New: newMaxValue},
		{Kind: KindMinLength, Params: []string{"min"}, Message: "length must be at least {min}", New: newMinLength},
		{Kind: KindMaxLength, Params: []string{"max"}, Message: "length must be at most {max}", New: newMaxLength},
		{Kind: KindSize, Params: []string{"min", "max"}, Message: "size must be between {min} and {max}", New: newSize},
		{Kind: KindPattern, Params: []string{"regexp"}, RawParams: true, Message: "must match \"{regexp}\"", New: newPattern},
		{Kind: KindEmail, Message: "not a well-formed email address", New: newEmail},
	}
}

// Mandatory returns a constraint rejecting nil values and empty strings.
func Mandatory() Constraint {
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return false, nil
		}
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.String {
			return rv.Len() > 0, nil
		}
		return true, nil
	})
}

// NotEmpty returns a constraint rejecting nil values and values of length zero.
func NotEmpty() Constraint {
	return Func(func(value interface{}, _ Context) (bool, error) {
		return !IsNilOrEmpty(value), nil
	})
}

// MinValue returns a constraint accepting values ordered at or above min.
// Nil values are valid.
func MinValue(min interface{}) Constraint {
	bound := ParseBound(min)
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return true, nil
		}
		return Compare(deref(value), bound) >= 0, nil
	})
}

// MaxValue returns a constraint accepting values ordered at or below max.
// Nil values are valid.
func MaxValue(max interface{}) Constraint {
	bound := ParseBound(max)
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return true, nil
		}
		return Compare(deref(value), bound) <= 0, nil
	})
}

// Size returns a constraint on the length of a value. A negative max means
// unbounded. Nil values are valid.
func Size(min, max int) Constraint {
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return true, nil
		}
		n := Length(value)
		if n < 0 {
			return false, fmt.Errorf("length of %T is undefined", value)
		}
		return n >= min && (max < 0 || n <= max), nil
	})
}

// Pattern returns a constraint requiring the whole string to match re.
// Nil values are valid.
func Pattern(re *regexp.Regexp) Constraint {
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return true, nil
		}
		s, err := stringOf(value)
		if err != nil {
			return false, err
		}
		return re.MatchString(s), nil
	})
}

// Email returns a constraint accepting well-formed addresses. Nil values and
// empty strings are valid.
func Email() Constraint {
	return Func(func(value interface{}, _ Context) (bool, error) {
		if IsNil(value) {
			return true, nil
		}
		s, err := stringOf(value)
		if err != nil {
			return false, err
		}
		return s == "" || emailPattern.MatchString(s), nil
	})
}

func newMandatory(map[string]interface{}) (Constraint, error) { return Mandatory(), nil }

func newNotEmpty(map[string]interface{}) (Constraint, error) { return NotEmpty(), nil }

func newEmail(map[string]interface{}) (Constraint, error) { return Email(), nil }

func newMinValue(params map[string]interface{}) (Constraint, error) {
	min, err := required(params, "min")
	if err != nil {
		return nil, err
	}
	return MinValue(min), nil
}

func newMaxValue(params map[string]interface{}) (Constraint, error) {
	max, err := required(params, "max")
	if err != nil {
		return nil, err
	}
	return MaxValue(max), nil
}

func newMinLength(params map[string]interface{}) (Constraint, error) {
	min, err := intParam(params, "min")
	if err != nil {
		return nil, err
	}
	return Size(min, -1), nil
}

func newMaxLength(params map[string]interface{}) (Constraint, error) {
	max, err := intParam(params, "max")
	if err != nil {
		return nil, err
	}
	return Size(0, max), nil
}

func newSize(params map[string]interface{}) (Constraint, error) {
	min, max := 0, -1
	var err error
	if _, ok := params["min"]; ok {
		if min, err = intParam(params, "min"); err != nil {
			return nil, err
		}
	}
	if _, ok := params["max"]; ok {
		if max, err = intParam(params, "max"); err != nil {
			return nil, err
		}
		if max < min {
			return nil, bverror.Newf("max %d is below min %d", max, min).WithCode(bverror.CodeInvalidConstraint)
		}
	}
	return Size(min, max), nil
}

func newPattern(params map[string]interface{}) (Constraint, error) {
	raw, err := required(params, "regexp")
	if err != nil {
		return nil, err
	}
	expr, ok := raw.(string)
	if !ok {
		return nil, bverror.Newf("regexp must be a string, got %T", raw).WithCode(bverror.CodeInvalidConstraint)
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, bverror.Wrap(err, "invalid regexp").WithCode(bverror.CodeInvalidConstraint)
	}
	return Pattern(re), nil
}

func required(params map[string]interface{}, name string) (interface{}, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, bverror.Newf("missing parameter %q", name).WithCode(bverror.CodeInvalidConstraint)
	}
	return v, nil
}

func intParam(params map[string]interface{}, name string) (int, error) {
	v, err := required(params, name)
	if err != nil {
		return 0, err
	}
	n, err := toInt(v)
	if err != nil {
		return 0, bverror.Wrap(err, fmt.Sprintf("parameter %q", name)).WithCode(bverror.CodeInvalidConstraint)
	}
	return n, nil
}

func stringOf(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	rv := reflect.ValueOf(deref(value))
	if rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	return "", fmt.Errorf("cannot match %T against a pattern", value)
}

// deref follows non-nil pointers.
func deref(value interface{}) interface{} {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Ptr && !rv.IsNil() {
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}
