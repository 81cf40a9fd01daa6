package controller

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"editorshell/logging"
	"editorshell/websocket"
	"editorshell/websocket/service/fs"
	"editorshell/websocket/service/heartbeat"
	menusvc "editorshell/websocket/service/menu"
	"editorshell/websocket/service/terminal"
)

const sshDialTimeout = 10 * time.Second

// SSHController keeps logged-in SSH clients so several sessions can share one connection.
type SSHController struct {
	Clients map[string]*ssh.Client
	*sync.RWMutex

	deps   *Deps
	logger *zap.Logger
}

func NewSSHController(deps *Deps) *SSHController {
	return &SSHController{
		Clients: make(map[string]*ssh.Client),
		RWMutex: &sync.RWMutex{},
		deps:    deps,
		logger:  logging.Named("ssh"),
	}
}

func (sc *SSHController) LoginSSH(c *gin.Context) {
	var info sshInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if info.Port == 0 {
		info.Port = 22
	}

	hostKeyCallback, err := sc.hostKeyCallback()
	if err != nil {
		sc.logger.Error("loading known hosts", zap.String("path", sc.deps.KnownHosts), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	config := &ssh.ClientConfig{
		User:            info.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(info.Password)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         sshDialTimeout,
	}

	addr := net.JoinHostPort(info.Host, strconv.Itoa(info.Port))
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		sc.logger.Info("ssh login failed", zap.String("addr", addr), zap.String("user", info.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	sc.Lock()
	sc.Clients[id] = client
	sc.Unlock()

	sc.logger.Info("ssh login", zap.String("id", id), zap.String("addr", addr), zap.String("user", info.Username))
	c.JSON(http.StatusOK, gin.H{"id": id})
}

// hostKeyCallback verifies remote hosts against the configured known_hosts file.
// Without one every host key is accepted.
func (sc *SSHController) hostKeyCallback() (ssh.HostKeyCallback, error) {
	if sc.deps.KnownHosts == "" {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	return knownhosts.New(sc.deps.KnownHosts)
}

func (sc *SSHController) client(c *gin.Context) (*ssh.Client, bool) {
	sc.RLock()
	client, exists := sc.Clients[c.Param("id")]
	sc.RUnlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown SSH client ID"})
	}
	return client, exists
}

// StartSSHSession serves a project that lives on the remote host: files over SFTP and
// terminals over SSH.
func (sc *SSHController) StartSSHSession(c *gin.Context) {
	sshClient, ok := sc.client(c)
	if !ok {
		return
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to start sftp: %v", err)})
		return
	}
	defer sftpClient.Close()

	wsServer, err := websocket.NewServer(c.Writer, c.Request, sc.deps.sessionOptions())
	if err != nil {
		c.Error(err)
		return
	}

	wsServer.Register(fs.NewSFTPService(sftpClient))
	wsServer.Register(menusvc.NewService(AppName, sc.deps.Menu))

	wsServer.RegisterSerial(terminal.NewSSHService(sshClient))
	wsServer.RegisterPassive(heartbeat.NewService())

	wsServer.Start()
}

func (sc *SSHController) LogoutSSH(c *gin.Context) {
	id := c.Param("id")

	sc.Lock()
	client, exists := sc.Clients[id]
	delete(sc.Clients, id)
	sc.Unlock()

	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown SSH client ID"})
		return
	}

	if err := client.Close(); err != nil {
		sc.logger.Debug("closing ssh client", zap.String("id", id), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// Close disconnects every remote client.
func (sc *SSHController) Close() {
	sc.Lock()
	defer sc.Unlock()

	for id, client := range sc.Clients {
		client.Close()
		delete(sc.Clients, id)
	}
}
