package constraints

import (
	"cmp"
	"fmt"
	"reflect"
	"strings"
)

type kindClass int

const (
	classNone kindClass = iota
	classSigned
	classUnsigned
	classFloat
	classString
	classStruct
)

func classOf(k reflect.Kind) kindClass {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return classSigned
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return classUnsigned
	case reflect.Float32, reflect.Float64:
		return classFloat
	case reflect.String:
		return classString
	case reflect.Struct:
		return classStruct
	default:
		return classNone
	}
}

// Compare orders value relative to bound and returns -1, 0 or +1.
//
// The first applicable rule wins:
//  1. value converts to the bound's type without leaving its kind class
//     (signed, unsigned, float, string) and that type is ordered, either
//     natively or through a Compare(T) int method such as time.Time's
//  2. value is numeric: both sides are compared as float64
//  3. otherwise the fmt.Sprint forms are compared lexically
func Compare(value, bound interface{}) int {
	if c, ok := compareNatural(value, bound); ok {
		return c
	}
	if IsNumeric(value) {
		if b, err := ToFloat64(bound); err == nil {
			v, _ := ToFloat64(value)
			return cmp.Compare(v, b)
		}
	}
	return strings.Compare(fmt.Sprint(value), fmt.Sprint(bound))
}

func compareNatural(value, bound interface{}) (int, bool) {
	if value == nil || bound == nil {
		return 0, false
	}
	vv, bv := reflect.ValueOf(value), reflect.ValueOf(bound)
	bt := bv.Type()

	class := classOf(bt.Kind())
	if class == classNone || classOf(vv.Kind()) != class || !vv.Type().ConvertibleTo(bt) {
		return 0, false
	}
	cv := vv.Convert(bt)

	switch class {
	case classSigned:
		return cmp.Compare(cv.Int(), bv.Int()), true
	case classUnsigned:
		return cmp.Compare(cv.Uint(), bv.Uint()), true
	case classFloat:
		return cmp.Compare(cv.Float(), bv.Float()), true
	case classString:
		return cmp.Compare(cv.String(), bv.String()), true
	default:
		return compareMethod(cv, bv)
	}
}

// compareMethod uses a Compare(T) int method declared on the bound's type.
func compareMethod(v, bound reflect.Value) (int, bool) {
	m := v.MethodByName("Compare")
	if !m.IsValid() {
		return 0, false
	}
	mt := m.Type()
	if mt.NumIn() != 1 || mt.NumOut() != 1 || mt.In(0) != bound.Type() || mt.Out(0).Kind() != reflect.Int {
		return 0, false
	}
	return cmp.Compare(int(m.Call([]reflect.Value{bound})[0].Int()), 0), true
}
