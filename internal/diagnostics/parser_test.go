package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkbuild/ubuild/internal/model"
)

func TestParseSingleError(t *testing.T) {
	out := `src/widget.cpp:42:9: error: use of undeclared identifier 'foo'`
	diags := Parse(out)
	require.Len(t, diags, 1)
	assert.Equal(t, "src/widget.cpp", diags[0].File)
	assert.Equal(t, 42, diags[0].Line)
	assert.Equal(t, 9, diags[0].Column)
	assert.Equal(t, model.SeverityError, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "foo")
}

func TestParseAttachesNoteToPrecedingPrimary(t *testing.T) {
	out := "src/widget.cpp:10:5: warning: unused variable 'x'\n" +
		"src/widget.h:3:1: note: declared here\n"
	diags := Parse(out)
	require.Len(t, diags, 1)
	assert.Equal(t, model.SeverityWarning, diags[0].Severity)
	require.Len(t, diags[0].Details, 1)
	assert.Equal(t, model.SeverityNote, diags[0].Details[0].Severity)
}

func TestParseBareErrorLineWithNoLocation(t *testing.T) {
	out := "Error: linker command failed with exit code 1"
	diags := Parse(out)
	require.Len(t, diags, 1)
	assert.Equal(t, -1, diags[0].Line)
	assert.Equal(t, model.SeverityError, diags[0].Severity)
}

func TestParseMultiplePrimariesStaySeparate(t *testing.T) {
	out := "a.cpp:1:1: error: first problem\n" +
		"b.cpp:2:2: error: second problem\n"
	diags := Parse(out)
	require.Len(t, diags, 2)
	assert.Equal(t, "a.cpp", diags[0].File)
	assert.Equal(t, "b.cpp", diags[1].File)
}

func TestHasErrorsDetectsNestedDetailSeverity(t *testing.T) {
	diags := []model.Diagnostic{
		{Severity: model.SeverityWarning, Details: []model.Diagnostic{{Severity: model.SeverityError}}},
	}
	assert.True(t, HasErrors(diags))
}

func TestHasErrorsFalseWhenOnlyWarnings(t *testing.T) {
	diags := []model.Diagnostic{{Severity: model.SeverityWarning}}
	assert.False(t, HasErrors(diags))
}
