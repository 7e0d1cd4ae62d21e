package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := Wrap(cause, ErrCodeResourceError, "create realm")

	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.True(t, IsCode(err, ErrCodeResourceError))
	assert.Equal(t, "[RESOURCE_ERROR] create realm: context deadline exceeded", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "noop"))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeAuthFailed, GetCode(AuthFailed(nil, "token request rejected")))
	assert.Equal(t, ErrCodeInternal, GetCode(stderrors.New("plain")))
}

func TestConstructorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"auth", AuthFailed(nil, "denied"), ErrCodeAuthFailed},
		{"resource", ResourceFailed(nil, "role", "admin"), ErrCodeResourceError},
		{"user", UserFailed(nil, "alice", "create"), ErrCodeUserProvisioning},
		{"probe", ProbeFailed(nil, "http://kc/realms/x"), ErrCodeProbeFailed},
		{"input", InvalidInput("DATABASE_URL", "required"), ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestProbeFailedDetails(t *testing.T) {
	err := ProbeFailed(nil, "http://kc/realms/x")
	assert.Equal(t, "http://kc/realms/x", GetDetails(err)["url"])
	assert.Equal(t, "[PROBE_FAILED] discovery document not accessible", err.Error())
}

func TestResourceFailedDetails(t *testing.T) {
	err := ResourceFailed(stderrors.New("status 500"), "client", "spending-monitor")
	details := GetDetails(err)
	assert.Equal(t, "client", details["resource"])
	assert.Equal(t, "spending-monitor", details["id"])
	assert.Contains(t, err.Error(), `failed to reconcile client "spending-monitor"`)
}
