package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		wantCategory Category
		wantSeverity Severity
	}{
		{name: "config invalid", code: ErrCodeConfigInvalid, wantCategory: CategoryConfig, wantSeverity: SeverityError},
		{name: "storage not writable", code: ErrCodeStorageNotWritable, wantCategory: CategoryConfig, wantSeverity: SeverityFatal},
		{name: "dir not found", code: ErrCodeDirNotFound, wantCategory: CategoryIO, wantSeverity: SeverityFatal},
		{name: "file unreadable", code: ErrCodeFileUnreadable, wantCategory: CategoryIO, wantSeverity: SeverityWarning},
		{name: "not fits", code: ErrCodeNotFITS, wantCategory: CategoryIO, wantSeverity: SeverityWarning},
		{name: "query mismatch", code: ErrCodeQueryMismatch, wantCategory: CategoryValidation, wantSeverity: SeverityError},
		{name: "internal", code: ErrCodeInternal, wantCategory: CategoryInternal, wantSeverity: SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
			assert.Equal(t, tt.wantSeverity, err.Severity)
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying failure")
	err := Wrap(ErrCodeFileUnreadable, cause)
	require.NotNil(t, err)

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, stderrors.Is(err, cause))

	assert.Nil(t, Wrap(ErrCodeFileUnreadable, nil))
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(ErrCodeKeywordNotTracked, "keyword FILTER is not tracked", nil)
	target := New(ErrCodeKeywordNotTracked, "different message", nil)

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, New(ErrCodeQueryMismatch, "", nil)))
}

func TestSeverityPredicates(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeDirNotFound, "missing", nil)))
	assert.False(t, IsFatal(New(ErrCodeFileUnreadable, "skip me", nil)))
	assert.False(t, IsFatal(nil))

	assert.True(t, IsSkippable(New(ErrCodeNotFITS, "corrupt", nil)))
	assert.False(t, IsSkippable(New(ErrCodeQueryMismatch, "bad query", nil)))
	assert.False(t, IsSkippable(stderrors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeFileUnreadable, "cannot open", nil).
		WithDetail("file", "a.fits").
		WithDetail("dir", "/data/night1")

	assert.Equal(t, "a.fits", err.Details["file"])
	assert.Equal(t, "/data/night1", err.Details["dir"])
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(InternalError("oops", nil)))
	assert.Equal(t, "", GetCode(stderrors.New("plain")))
}
