package errors

import (
	"net/http"
	"testing"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		want int
	}{
		{"invalid param", ErrInvalidParam, http.StatusBadRequest},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"project not found", ErrProjectNotFound, http.StatusNotFound},
		{"chapter not found", ErrChapterNotFound, http.StatusNotFound},
		{"user not found", ErrUserNotFound, http.StatusNotFound},
		// 大纲生成在概念缺失时按请求错误返回
		{"concept not found", ErrConceptNotFound, http.StatusBadRequest},
		{"token limit", ErrTokenLimitExceeded, http.StatusTooManyRequests},
		// 生成链路故障统一归为 500
		{"provider unavailable", ErrProviderUnavailable, http.StatusInternalServerError},
		{"malformed response", ErrMalformedResponse, http.StatusInternalServerError},
		{"storage failure", ErrStorageFailure, http.StatusInternalServerError},
		{"service unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.HTTPStatus != tc.want {
				t.Errorf("%s: HTTPStatus = %d, want %d", tc.err.Code, tc.err.HTTPStatus, tc.want)
			}
		})
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(CodeDatabaseError, "db down")
	wrapped := Wrap(cause, CodeGenerationFailed, "generation failed")

	if wrapped.Unwrap() != cause {
		t.Error("wrapped error lost its cause")
	}
	if wrapped.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", wrapped.HTTPStatus)
	}
}
