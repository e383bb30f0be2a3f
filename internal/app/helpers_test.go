package app

import (
	"testing"

	"github.com/dkeye/Chat/internal/core"
	"github.com/dkeye/Chat/internal/domain"
	"github.com/stretchr/testify/require"
)

type nopConn struct{}

func (nopConn) TrySend(core.Frame) error { return nil }
func (nopConn) Close()                   {}

func newSession(t *testing.T, sid core.SessionID, name string) core.MemberSession {
	t.Helper()
	u, err := domain.NewUser(domain.UserID(sid), name)
	require.NoError(t, err)
	return core.NewMemberSession(domain.NewMember(u), nopConn{})
}
