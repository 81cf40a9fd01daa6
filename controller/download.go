package controller

import (
	"errors"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/sftp"
	"go.uber.org/zap"

	"editorshell/logging"
	"editorshell/websocket/service/fs"
)

type downloadQuery struct {
	Path string `form:"path" binding:"required"`
}

// LocalDownload streams a file, or a directory as a zip archive, from this machine.
func LocalDownload(c *gin.Context) {
	download(c, fs.NewAccess(&fs.LocalFileSystem{}, logging.Named("download")))
}

func (sc *SSHController) Download(c *gin.Context) {
	sshClient, ok := sc.client(c)
	if !ok {
		return
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer sftpClient.Close()

	download(c, fs.NewAccess(fs.NewSFTPFileSystem(sftpClient), sc.logger))
}

func download(c *gin.Context, access *fs.Access) {
	var q downloadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := access.PrepareDownload(q.Path)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, fs.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, fs.ErrNotAFile):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", d.ContentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Name}))
	c.Status(http.StatusOK)

	// headers are gone, a failure can only cut the body short
	if err := access.WriteDownload(c.Writer, d); err != nil {
		logging.Named("download").Warn("download interrupted", zap.String("path", q.Path), zap.Error(err))
		c.Error(err)
	}
}
