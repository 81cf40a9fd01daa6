package menu

import (
	"encoding/json"

	"go.uber.org/zap"

	"editorshell/logging"
	"editorshell/menu"
	ws "editorshell/websocket"
)

const (
	actionGetMenu = "get_menu"
	actionClick   = "click"
)

type clickData struct {
	ID menu.ItemID `json:"id"`
}

// MenuService hands the menu tree to the frontend shell that renders it and relays
// clicks back to the controller.
type MenuService struct {
	appName    string
	controller *menu.Controller
	reply      *ws.Responder

	logger *zap.Logger
}

func NewService(appName string, controller *menu.Controller) *MenuService {
	return &MenuService{
		appName:    appName,
		controller: controller,
		logger:     logging.Named("menu"),
	}
}

func (s *MenuService) Name() string {
	return ws.NotificationService
}

func (s *MenuService) Register(conn ws.Sender) {
	s.reply = &ws.Responder{Conn: conn, Service: s.Name(), Logger: s.logger}
}

func (s *MenuService) HandleTextMessage(id, action string, data json.RawMessage) {
	switch action {
	case actionGetMenu:
		s.reply.Reply(id, action, menu.Build(s.appName))
	case actionClick:
		var d clickData
		if !s.reply.Decode(id, action, data, &d) {
			return
		}
		handled := s.controller.Click(d.ID)
		if !handled {
			s.logger.Debug("click on unknown menu item", zap.String("item", string(d.ID)))
		}
		s.reply.Reply(id, action, handled)
	default:
		s.logger.Debug("unknown action", zap.String("action", action))
	}
}

func (s *MenuService) Cleanup(err error) {}
