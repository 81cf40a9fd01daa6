package controller

import (
	"github.com/gin-gonic/gin"

	"editorshell/websocket"
	"editorshell/websocket/service/fs"
	"editorshell/websocket/service/heartbeat"
	menusvc "editorshell/websocket/service/menu"
	projectsvc "editorshell/websocket/service/project"
	"editorshell/websocket/service/terminal"
)

// LocalSession serves the editor frontend running on this machine.
func LocalSession(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		wsServer, err := websocket.NewServer(c.Writer, c.Request, deps.sessionOptions())
		if err != nil {
			// the upgrader already answered the request
			c.Error(err)
			return
		}

		openProject := func() (string, bool) {
			st := deps.Projects.Current()
			if !st.IsOpen() {
				return "", false
			}
			return *st.Path, true
		}

		wsServer.Register(fs.NewLocalService())
		wsServer.Register(projectsvc.NewService(deps.context(), deps.Projects, deps.Picker))
		wsServer.Register(menusvc.NewService(AppName, deps.Menu))

		wsServer.RegisterSerial(terminal.NewLocalService(openProject, deps.TerminalDir))
		wsServer.RegisterPassive(heartbeat.NewService())

		wsServer.Start()
	}
}
