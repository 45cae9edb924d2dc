package error

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("group must be an interface").
		WithCode(CodeInvalidGroup).
		WithDetail("group", "Order").
		WithOperation("groups.ComputeGroups")

	assert.Equal(t, "group must be an interface", err.Error())
	assert.Equal(t, CodeInvalidGroup, err.Code())
	assert.Equal(t, SeverityHigh, err.Severity())
	assert.Equal(t, "groups.ComputeGroups", err.Operation())
	v, ok := err.Detail("group")
	require.True(t, ok)
	assert.Equal(t, "Order", v)
	assert.NotEmpty(t, err.StackTrace())
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("standard error", func(t *testing.T) {
		base := fmt.Errorf("boom")
		err := Wrap(base, "evaluating constraint")
		assert.Equal(t, "evaluating constraint: boom", err.Error())
		assert.Equal(t, CodeUnknown, err.Code())
		assert.Same(t, base, err.RootCause())
	})

	t.Run("keeps code and details", func(t *testing.T) {
		base := New("cyclic").WithCode(CodeGroupCycle).WithDetail("group", "A")
		err := Wrap(base, "resolving plan")
		assert.Equal(t, CodeGroupCycle, err.Code())
		v, _ := err.Detail("group")
		assert.Equal(t, "A", v)
		assert.True(t, errors.Is(err, base))
	})

	t.Run("truncates deep chains", func(t *testing.T) {
		var err error = New("root")
		for i := 0; i < MaxErrorChainDepth+2; i++ {
			err = Wrap(err, "level")
		}
		var bvErr *Error
		require.True(t, errors.As(err, &bvErr))
		assert.True(t, chainDepth(err) <= MaxErrorChainDepth+1)
	})
}

func TestIsMatchesByCode(t *testing.T) {
	sentinel := New("invalid path").WithCode(CodeInvalidPath)
	err := New("unbalanced bracket in foo[.bar").WithCode(CodeInvalidPath)

	assert.True(t, errors.Is(err, sentinel))
	assert.True(t, errors.Is(fmt.Errorf("parse: %w", err), sentinel))
	assert.False(t, errors.Is(New("other").WithCode(CodeGroupCycle), sentinel))
	assert.False(t, errors.Is(New("x"), New("y")), "unknown codes never match")
}

func TestHasCodeAndGetCode(t *testing.T) {
	inner := New("cycle").WithCode(CodeGroupCycle)
	outer := fmt.Errorf("validate: %w", inner)

	assert.True(t, HasCode(outer, CodeGroupCycle))
	assert.False(t, HasCode(outer, CodeInvalidPath))
	assert.Equal(t, CodeGroupCycle, GetCode(outer))
	assert.Equal(t, CodeUnknown, GetCode(errors.New("plain")))
	assert.Equal(t, SeverityHigh, GetSeverity(outer))
	assert.Equal(t, SeverityMedium, GetSeverity(errors.New("plain")))
}

func TestCodeIsConfiguration(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{CodeGroupCycle, true},
		{CodeInvalidGroup, true},
		{CodeInvalidSequence, true},
		{CodeInvalidConfig, true},
		{CodeInvalidPath, false},
		{CodeConstraintEvaluation, false},
		{CodeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.IsConfiguration())
		})
	}
}

func TestStringAndJSON(t *testing.T) {
	err := Wrap(errors.New("bad value"), "constraint maxValue failed").
		WithCode(CodeConstraintEvaluation).
		WithDetail("b", 2).
		WithDetail("a", 1).
		WithOperation("validator.Validate")

	s := err.String()
	assert.Contains(t, s, "Code: CONSTRAINT_EVALUATION")
	assert.Contains(t, s, "Details: {a=1, b=2}")
	assert.True(t, strings.HasSuffix(s, "Cause: bad value"))

	raw, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "CONSTRAINT_EVALUATION", decoded["code"])
	assert.Equal(t, "validator.Validate", decoded["operation"])
	assert.Equal(t, "bad value", decoded["cause"])
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "low", SeverityLow.String())
	assert.Equal(t, "critical", SeverityCritical.String())
	assert.Equal(t, "unknown", Severity(42).String())
	assert.True(t, SeverityHigh.ShouldAlert())
	assert.False(t, SeverityLow.ShouldAlert())
}
