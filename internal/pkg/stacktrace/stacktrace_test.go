package stacktrace

import (
	"reflect"
	"testing"
)

func TestInternalPaths(t *testing.T) {
	stack := []byte(`goroutine 1 [running]:
runtime/debug.Stack()
	/usr/local/go/src/runtime/debug/stack.go:26 +0x5e
github.com/shandysiswandi/otpauth/internal/auth/usecase.(*Usecase).Verify(...)
	/app/internal/auth/usecase/verify.go:42 +0x1d
net/http.HandlerFunc.ServeHTTP(...)
	/usr/local/go/src/net/http/server.go:2220 +0x29
github.com/shandysiswandi/otpauth/internal/pkg/router.middlewareRecoverer.func1()
	/app/internal/pkg/router/middleware_recover.go:33
`)

	want := []string{
		"internal/auth/usecase/verify.go:42",
		"internal/pkg/router/middleware_recover.go:33",
	}

	if got := InternalPaths(stack); !reflect.DeepEqual(got, want) {
		t.Errorf("InternalPaths() = %v, want %v", got, want)
	}
}

func TestInternalPaths_Empty(t *testing.T) {
	if got := InternalPaths(nil); len(got) != 0 {
		t.Errorf("InternalPaths(nil) = %v, want empty", got)
	}
}
