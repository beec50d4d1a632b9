package ipc

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func newConnPair(t *testing.T) (client, server *Conn) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sock")

	addr, err := net.ResolveUnixAddr("unix", path)
	require.NoError(t, err)
	ln, err := net.ListenUnix("unix", addr)
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	accepted := make(chan *net.UnixConn, 1)
	go func() {
		c, err := ln.AcceptUnix()
		require.NoError(t, err)
		accepted <- c
	}()

	dialed, err := net.DialUnix("unix", nil, addr)
	require.NoError(t, err)
	serverConn := <-accepted

	client, err = NewConn(dialed)
	require.NoError(t, err)
	server, err = NewConn(serverConn)
	require.NoError(t, err)

	t.Cleanup(func() { client.Close(); server.Close() })
	return client, server
}

func TestPingPongRoundTrip(t *testing.T) {
	client, server := newConnPair(t)

	require.NoError(t, client.SendPing())
	kind, payload, fd, err := server.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, ReqPing, kind)
	assert.Nil(t, payload)
	assert.Equal(t, -1, fd)

	require.NoError(t, server.SendPong())
	rkind, _, err := client.ReadReply()
	require.NoError(t, err)
	assert.Equal(t, ReplyPong, rkind)
}

func TestImgRequestCarriesMemfd(t *testing.T) {
	client, server := newConnPair(t)

	memfd, err := unix.MemfdCreate("driftwall-test", 0)
	require.NoError(t, err)
	defer unix.Close(memfd)
	require.NoError(t, unix.Ftruncate(memfd, 4096))

	req := ImgRequest{Outputs: []string{"eDP-1"}, HasFD: true}
	require.NoError(t, client.SendImg(req, memfd))

	kind, payload, fd, err := server.ReadRequest()
	require.NoError(t, err)
	require.Equal(t, ReqImg, kind)
	defer unix.Close(fd)

	got, ok := payload.(ImgRequest)
	require.True(t, ok)
	assert.Equal(t, req.Outputs, got.Outputs)
	assert.True(t, got.HasFD)
	assert.GreaterOrEqual(t, fd, 0, "fd should have been passed via SCM_RIGHTS")

	var st unix.Stat_t
	require.NoError(t, unix.Fstat(fd, &st))
	assert.EqualValues(t, 4096, st.Size, "received fd refers to the same memfd")
}

func TestQueryRequestAndInfoReply(t *testing.T) {
	client, server := newConnPair(t)

	require.NoError(t, client.SendQuery(nil))
	kind, payload, _, err := server.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, ReqQuery, kind)
	req, ok := payload.(OutputsRequest)
	require.True(t, ok)
	assert.Empty(t, req.Outputs)

	info := InfoReply{Outputs: []OutputInfo{{Name: "eDP-1", Width: 1920, Height: 1080, Scale: 1}}}
	require.NoError(t, server.SendInfo(info))

	rkind, rpayload, err := client.ReadReply()
	require.NoError(t, err)
	assert.Equal(t, ReplyInfo, rkind)
	gotInfo, ok := rpayload.(InfoReply)
	require.True(t, ok)
	assert.Equal(t, info.Outputs, gotInfo.Outputs)
}

func TestErrReplyCarriesMessage(t *testing.T) {
	client, server := newConnPair(t)

	require.NoError(t, client.SendClear(ClearRequest{Outputs: []string{"eDP-1"}}))
	_, _, _, err := server.ReadRequest()
	require.NoError(t, err)

	require.NoError(t, server.SendErr("no such output"))
	kind, payload, err := client.ReadReply()
	require.NoError(t, err)
	assert.Equal(t, ReplyErr, kind)
	assert.Equal(t, ErrReply{Message: "no such output"}, payload)
}
