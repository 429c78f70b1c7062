package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ClassifiedError
		expected string
	}{
		{
			name:     "error without cause",
			err:      ConfigError("configuration invalid").Build(),
			expected: "[config:fatal] configuration invalid",
		},
		{
			name:     "error with cause",
			err:      WrapError(fmt.Errorf("permission denied"), CategoryFileSystem, "failed to reset output").Build(),
			expected: "[filesystem:error] failed to reset output: permission denied",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.err.Error())
		})
	}
}

func TestClassifiedError_UnwrapAndAs(t *testing.T) {
	cause := stdErrors.New("boom")
	classified := FileSystemError("copy failed").WithCause(cause).Build()
	wrapped := fmt.Errorf("publish: %w", classified)

	assert.ErrorIs(t, wrapped, cause)

	got, ok := AsClassified(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryFileSystem, got.Category())
	assert.True(t, got.IsFatal())
	assert.True(t, HasCategory(wrapped, CategoryFileSystem))
	assert.False(t, HasCategory(wrapped, CategoryConfig))
	assert.Equal(t, CategoryInternal, GetCategory(stdErrors.New("plain")))
}

func TestClassifiedError_WithContextDoesNotMutate(t *testing.T) {
	base := ValidationError("bad mode").WithContext("field", "mode").Build()
	extended := base.WithContext("value", "sideways")

	_, ok := base.Context().Get("value")
	assert.False(t, ok, "original context must not change")

	v, ok := extended.Context().GetString("value")
	require.True(t, ok)
	assert.Equal(t, "sideways", v)

	field, ok := extended.Context().GetString("field")
	require.True(t, ok)
	assert.Equal(t, "mode", field)
}

func TestClassifiedError_LogAttrsSorted(t *testing.T) {
	err := LockError("output locked").
		WithContext("path", "/tmp/public").
		WithContext("lock", "/tmp/.public.lock").
		Build()

	attrs := err.LogAttrs()
	require.Len(t, attrs, 3)
	assert.Equal(t, "category", attrs[0].Key)
	assert.Equal(t, "lock", attrs[1].Key)
	assert.Equal(t, "path", attrs[2].Key)
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"x": 1, "y": 2}
	b := ErrorContext{"y": 3}

	merged := a.Merge(b)
	assert.Equal(t, 1, merged["x"])
	assert.Equal(t, 3, merged["y"])
	assert.Equal(t, 2, a["y"])

	var empty ErrorContext
	assert.Equal(t, b, empty.Merge(b))
}
