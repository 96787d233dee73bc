package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/itiky/blogsync/model"
)

func Test_Manager_Token(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())

	_, err := m.CachedToken()
	require.ErrorIs(t, err, ErrNotAuthenticated)

	require.Error(t, m.Login(model.AuthToken{AccountPk: 1}))
	require.NoError(t, m.Login(model.AuthToken{AccountPk: 1, Token: "abc"}))

	token, err := m.CachedToken()
	require.NoError(t, err)
	require.Equal(t, "Token abc", token.Header())

	m.Logout()
	_, err = m.CachedToken()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func Test_Manager_Checker(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())
	require.True(t, m.IsConnectedToTheInternet(context.Background()))

	m.SetChecker(Static(false))
	require.False(t, m.IsConnectedToTheInternet(context.Background()))

	m.SetChecker(nil)
	require.False(t, m.IsConnectedToTheInternet(context.Background()))
}

func Test_DialChecker(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	checker, err := DialChecker("http://"+listener.Addr().String()+"/api/", time.Second)
	require.NoError(t, err)
	require.True(t, checker(context.Background()))

	addr := listener.Addr().String()
	require.NoError(t, listener.Close())
	checker, err = DialChecker("http://"+addr+"/api/", 200*time.Millisecond)
	require.NoError(t, err)
	require.False(t, checker(context.Background()))

	_, err = DialChecker("http://host", 0)
	require.Error(t, err)
	_, err = DialChecker("/relative", time.Second)
	require.Error(t, err)
}
