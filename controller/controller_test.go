package controller

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"editorshell/events"
	"editorshell/menu"
	"editorshell/pool"
	"editorshell/project"
	"editorshell/store"
	"editorshell/websocket"
)

type fixedPicker struct {
	path string
}

func (p fixedPicker) PickFolder(context.Context, string) (string, bool, error) {
	return p.path, p.path != "", nil
}

type testServer struct {
	*httptest.Server
	deps *Deps
	ssh  *SSHController
}

func newTestServer(t *testing.T, pickerPath string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p := pool.New(2)
	t.Cleanup(p.Close)

	bus := events.NewBroadcaster()
	settings := store.New(filepath.Join(t.TempDir(), "settings.json"))

	deps := &Deps{
		Pool:              p,
		Notifier:          bus,
		Projects:          project.NewManager(project.NewStorePersister(settings)),
		Picker:            fixedPicker{path: pickerPath},
		Menu:              menu.NewController(bus),
		Context:           context.Background(),
		Sessions:          websocket.NewSessions(),
		ConnectionTimeout: time.Minute,
	}

	r, sshController := NewRouter(deps)
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		sshController.Close()
		srv.Close()
	})

	return &testServer{Server: srv, deps: deps, ssh: sshController}
}

func (s *testServer) dial(t *testing.T, path string) *ws.Conn {
	t.Helper()
	target := "ws" + strings.TrimPrefix(s.URL, "http") + path
	conn, _, err := ws.DefaultDialer.Dial(target, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// call sends a request and waits for the reply with the same id, skipping notifications.
func call(t *testing.T, conn *ws.Conn, service, id, action string, data any) websocket.ServiceMessage {
	t.Helper()

	msg := websocket.ServiceMessage{Service: service, Id: id, Action: action}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, conn.WriteJSON(msg))

	return expect(t, conn, func(m websocket.ServiceMessage) bool {
		return m.Service == service && m.Id == id && m.Action == action
	})
}

func expect(t *testing.T, conn *ws.Conn, match func(websocket.ServiceMessage) bool) websocket.ServiceMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var reply websocket.ServiceMessage
		require.NoError(t, conn.ReadJSON(&reply))
		if match(reply) {
			return reply
		}
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, "")
	srv.deps.Menu.Click(menu.Undo)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `editorshell_notifications_total{event="menu-undo"}`)
}

func TestLocalSession(t *testing.T) {
	projectDir := filepath.Join(t.TempDir(), "Project")
	require.NoError(t, os.MkdirAll(filepath.Join(projectDir, "src"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(projectDir, "README.md"), []byte("# hi"), 0644))

	srv := newTestServer(t, projectDir)
	conn := srv.dial(t, "/ws")

	reply := call(t, conn, "project", "1", "get_current_project", nil)
	assert.JSONEq(t, `{"path":null,"name":null}`, string(reply.Data))

	reply = call(t, conn, "project", "2", "open_project_dialog", nil)
	var st project.State
	require.NoError(t, json.Unmarshal(reply.Data, &st))
	require.True(t, st.IsOpen())
	assert.Equal(t, projectDir, *st.Path)
	assert.Equal(t, "Project", *st.Name)

	reply = call(t, conn, "fs", "3", "read_directory", map[string]string{"path": projectDir})
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(reply.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "src", entries[0]["name"])
	assert.Equal(t, "README.md", entries[1]["name"])

	reply = call(t, conn, "fs", "4", "read_directory", map[string]string{"path": filepath.Join(projectDir, "missing")})
	assert.Contains(t, reply.Error, "path does not exist")

	reply = call(t, conn, "heartbeat", "5", "ping", nil)
	assert.Empty(t, reply.Error)

	t.Run("menu click notifies every session", func(t *testing.T) {
		other := srv.dial(t, "/ws")
		// the second session is subscribed once it answers
		call(t, other, "heartbeat", "h", "ping", nil)

		reply := call(t, conn, "menu", "6", "click", map[string]string{"id": "close_project"})
		assert.JSONEq(t, `true`, string(reply.Data))

		note := expect(t, other, func(m websocket.ServiceMessage) bool {
			return m.Service == websocket.NotificationService && m.Action == "menu-close-project"
		})
		assert.NotEmpty(t, note.Id)
		assert.Empty(t, note.Data)
	})

	reply = call(t, conn, "project", "7", "close_project", nil)
	assert.Empty(t, reply.Error)
	assert.False(t, srv.deps.Projects.Current().IsOpen())
}

func TestLocalSessionDialogCancelled(t *testing.T) {
	srv := newTestServer(t, "")
	conn := srv.dial(t, "/ws")

	reply := call(t, conn, "project", "1", "open_project_dialog", nil)
	assert.JSONEq(t, `null`, string(reply.Data))
}

// startSSHServer runs an SSH server that accepts dev/secret and serves the sftp subsystem
// from the local filesystem.
func startSSHServer(t *testing.T) (host string, port int) {
	t.Helper()
	host, port, _ = startSSHServerWithKey(t)
	return host, port
}

func startSSHServerWithKey(t *testing.T) (host string, port int, hostKey ssh.PublicKey) {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	config := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "dev" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	config.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSH(nc, config)
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port, signer.PublicKey()
}

func serveSSH(nc net.Conn, config *ssh.ServerConfig) {
	_, chans, reqs, err := ssh.NewServerConn(nc, config)
	if err != nil {
		return
	}
	go ssh.DiscardRequests(reqs)

	for newChannel := range chans {
		if newChannel.ChannelType() != "session" {
			newChannel.Reject(ssh.UnknownChannelType, "unsupported channel type")
			continue
		}
		channel, requests, err := newChannel.Accept()
		if err != nil {
			continue
		}

		go func() {
			for req := range requests {
				ok := req.Type == "subsystem" && len(req.Payload) > 4 && string(req.Payload[4:]) == "sftp"
				req.Reply(ok, nil)
				if !ok {
					continue
				}
				server, err := sftp.NewServer(channel)
				if err == nil {
					server.Serve()
				}
				channel.Close()
			}
		}()
	}
}

func login(t *testing.T, srv *testServer, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(srv.URL+"/remote/ssh", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRemoteSession(t *testing.T) {
	host, port := startSSHServer(t)
	srv := newTestServer(t, "")

	resp := login(t, srv, sshInfo{Host: host, Port: port, Username: "dev", Password: "secret"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var session struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	require.NotEmpty(t, session.ID)

	conn := srv.dial(t, "/remote/ssh/"+session.ID)

	root := t.TempDir()
	file := filepath.ToSlash(filepath.Join(root, "remote", "main.go"))

	reply := call(t, conn, "fs", "1", "write_file_contents", map[string]string{"path": file, "contents": "package main\n"})
	require.Empty(t, reply.Error)

	written, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(written))

	reply = call(t, conn, "fs", "2", "read_file_contents", map[string]string{"path": file})
	assert.JSONEq(t, `"package main\n"`, string(reply.Data))

	reply = call(t, conn, "fs", "3", "read_directory", map[string]string{"path": filepath.ToSlash(root)})
	assert.Contains(t, string(reply.Data), `"name":"remote"`)

	dl, err := http.Get(srv.URL + "/remote/ssh/" + session.ID + "/download?path=" + url.QueryEscape(file))
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Body)
	dl.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "package main\n", string(body))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/remote/ssh/"+session.ID, nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
}

func TestRemoteLoginErrors(t *testing.T) {
	host, port := startSSHServer(t)
	srv := newTestServer(t, "")

	t.Run("missing fields", func(t *testing.T) {
		resp := login(t, srv, map[string]string{"host": host})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := login(t, srv, sshInfo{Host: host, Port: port, Username: "dev", Password: "nope"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("unknown session id", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/remote/ssh/does-not-exist")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("logout unknown id", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/remote/ssh/does-not-exist", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRemoteLoginKnownHosts(t *testing.T) {
	host, port, hostKey := startSSHServerWithKey(t)
	addr := knownhosts.Normalize(net.JoinHostPort(host, strconv.Itoa(port)))

	writeKnownHosts := func(t *testing.T, key ssh.PublicKey) string {
		path := filepath.Join(t.TempDir(), "known_hosts")
		require.NoError(t, os.WriteFile(path, []byte(knownhosts.Line([]string{addr}, key)+"\n"), 0600))
		return path
	}

	t.Run("known host", func(t *testing.T) {
		srv := newTestServer(t, "")
		srv.deps.KnownHosts = writeKnownHosts(t, hostKey)

		resp := login(t, srv, sshInfo{Host: host, Port: port, Username: "dev", Password: "secret"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("changed host key", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		other, err := ssh.NewPublicKey(pub)
		require.NoError(t, err)

		srv := newTestServer(t, "")
		srv.deps.KnownHosts = writeKnownHosts(t, other)

		resp := login(t, srv, sshInfo{Host: host, Port: port, Username: "dev", Password: "secret"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, srv.ssh.Clients)
	})

	t.Run("missing known_hosts file", func(t *testing.T) {
		srv := newTestServer(t, "")
		srv.deps.KnownHosts = filepath.Join(t.TempDir(), "absent")

		resp := login(t, srv, sshInfo{Host: host, Port: port, Username: "dev", Password: "secret"})
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestForeignOriginRejected(t *testing.T) {
	srv := newTestServer(t, "")
	target := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := ws.DefaultDialer.Dial(target, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/files/download?path="+url.QueryEscape(t.TempDir()), nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	dl, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	dl.Body.Close()
	assert.Equal(t, http.StatusForbidden, dl.StatusCode)

	t.Run("frontend on localhost", func(t *testing.T) {
		conn, _, err := ws.DefaultDialer.Dial(target, http.Header{"Origin": []string{"http://localhost:1420"}})
		require.NoError(t, err)
		conn.Close()
	})
}

func TestShutdownClosesSessions(t *testing.T) {
	srv := newTestServer(t, "")
	conn := srv.dial(t, "/ws")
	require.Eventually(t, func() bool { return srv.deps.Sessions.Count() == 1 }, 5*time.Second, 10*time.Millisecond)

	srv.deps.Sessions.CloseAll()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	assert.Eventually(t, func() bool { return srv.deps.Sessions.Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestLocalDownload(t *testing.T) {
	srv := newTestServer(t, "")
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644))

	t.Run("file", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/files/download?path=" + url.QueryEscape(filepath.Join(dir, "notes.txt")))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename=notes.txt`, resp.Header.Get("Content-Disposition"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(body))
	})

	t.Run("directory", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/files/download?path=" + url.QueryEscape(dir))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	})

	t.Run("missing", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/files/download?path=" + url.QueryEscape(filepath.Join(dir, "nope")))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("no path", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/files/download")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
