package server

import (
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/pkg/logger"
)

func TestFrameRoundTrip(t *testing.T) {
	client, srv := net.Pipe()
	defer client.Close()
	defer srv.Close()

	payload := []byte(`{"method":"status"}`)
	go func() {
		sc := NewSyncConn(client)
		_ = sc.Write(payload)
	}()

	sc := NewSyncConn(srv)
	got, err := sc.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("frame = %q, want %q", got, payload)
	}
}

func TestLengthEncoding(t *testing.T) {
	for _, v := range []uint32{0, 1, 255, 256, 1 << 20, 1<<32 - 1} {
		if got := bytesToInt(intToBytes(v)); got != v {
			t.Errorf("round trip %d -> %d", v, got)
		}
	}
}

func startTestServer(t *testing.T, s *Server) {
	t.Helper()
	t.Setenv(common.SocketPathEnv, filepath.Join(t.TempDir(), "warmjar-test.sock"))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = s.Start(ctx)
	}()

	// Wait until the socket accepts connections.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("unix", common.SocketPath())
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start listening")
}

func TestServer_DispatchAndErrors(t *testing.T) {
	s := NewServer(logger.NewNopLogger(), 0)
	s.RegisterHandler(common.METHOD_VERSION, func(conn *SyncConn, body json.RawMessage) (common.Method, any, error) {
		return common.METHOD_VERSION, common.VersionResponse{Version: "test"}, nil
	})
	startTestServer(t, s)

	conn, err := net.Dial("unix", common.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	sc := NewSyncConn(conn)

	invoke := func(method string) Response {
		t.Helper()
		req, _ := json.Marshal(map[string]string{"method": method})
		if err := sc.Write(req); err != nil {
			t.Fatalf("write: %v", err)
		}
		raw, err := sc.Read()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var res Response
		if err := json.Unmarshal(raw, &res); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return res
	}

	res := invoke("version")
	if !res.Ok || res.Update == nil || res.Update.Type != common.METHOD_VERSION {
		t.Fatalf("version response = %+v", res)
	}

	res = invoke("no-such-method")
	if res.Ok || res.Error == "" {
		t.Fatalf("unknown method should error, got %+v", res)
	}

	// The connection survives an unknown method; a second request works.
	res = invoke("version")
	if !res.Ok {
		t.Fatalf("connection should survive an error response, got %+v", res)
	}
}
