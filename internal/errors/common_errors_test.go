package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorType_Constants(t *testing.T) {
	tests := []struct {
		name     string
		errType  ErrorType
		expected string
	}{
		{name: "config error type", errType: ErrTypeConfig, expected: "CONFIG"},
		{name: "dataset load error type", errType: ErrTypeDatasetLoad, expected: "DATASET_LOAD"},
		{name: "empty dataset error type", errType: ErrTypeEmptyDataset, expected: "EMPTY_DATASET"},
		{name: "output path error type", errType: ErrTypeOutputPath, expected: "OUTPUT_PATH"},
		{name: "render error type", errType: ErrTypeRender, expected: "RENDER"},
		{name: "delivery error type", errType: ErrTypeDelivery, expected: "DELIVERY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(tt.errType))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name        string
		appError    *AppError
		wantMessage string
	}{
		{
			name: "error without cause",
			appError: &AppError{
				Type:    ErrTypeEmptyDataset,
				Message: "no records to summarise",
			},
			wantMessage: "[EMPTY_DATASET] no records to summarise",
		},
		{
			name: "error with cause",
			appError: &AppError{
				Type:    ErrTypeDelivery,
				Message: "failed to send report",
				Cause:   fmt.Errorf("535 authentication failed"),
			},
			wantMessage: "[DELIVERY] failed to send report: 535 authentication failed",
		},
		{
			name: "error with empty message",
			appError: &AppError{
				Type: ErrTypeConfig,
			},
			wantMessage: "[CONFIG] ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMessage, tt.appError.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("no such file or directory")
	err := NewDatasetLoadError("failed to open workbook", cause)

	assert.Same(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, NewEmptyDatasetError("empty").Unwrap())
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeDatasetLoad, Message: "bad amount"}

	got := err.WithContext("row", 7).WithContext("column", "Valor da Venda (R$)")

	require.NotNil(t, got.Context)
	assert.Equal(t, 7, got.Context["row"])
	assert.Equal(t, "Valor da Venda (R$)", got.Context["column"])
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
	}{
		{name: "config", err: NewConfigError("bad config", cause), wantType: ErrTypeConfig},
		{name: "dataset load", err: NewDatasetLoadError("bad workbook", cause), wantType: ErrTypeDatasetLoad},
		{name: "empty dataset", err: NewEmptyDatasetError("empty"), wantType: ErrTypeEmptyDataset},
		{name: "output path", err: NewOutputPathError("/missing/chart.png", cause), wantType: ErrTypeOutputPath},
		{name: "render", err: NewRenderError("chart failed", cause), wantType: ErrTypeRender},
		{name: "delivery", err: NewDeliveryError("smtp failed", cause), wantType: ErrTypeDelivery},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.NotNil(t, tt.err.Context)
		})
	}
}

func TestNewOutputPathError_RecordsPath(t *testing.T) {
	err := NewOutputPathError("/missing/report.pdf", nil)

	assert.Equal(t, "/missing/report.pdf", err.Context["path"])
	assert.Contains(t, err.Error(), "/missing/report.pdf")
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("stage workbook: %w", NewOutputPathError("out/x.xlsx", nil))

	assert.True(t, IsType(wrapped, ErrTypeOutputPath))
	assert.False(t, IsType(wrapped, ErrTypeDelivery))
	assert.False(t, IsType(errors.New("plain"), ErrTypeOutputPath))
	assert.False(t, IsType(nil, ErrTypeOutputPath))
	assert.Equal(t, ErrTypeOutputPath, TypeOf(wrapped))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
}
