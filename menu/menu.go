// Package menu builds the native menu tree and translates item clicks into
// frontend notifications.
package menu

// ItemID identifies a clickable menu item.
type ItemID string

const (
	OpenProject  ItemID = "open_project"
	CloseProject ItemID = "close_project"
	SaveFile     ItemID = "save_file"
	Undo         ItemID = "undo"
	Redo         ItemID = "redo"
	Cut          ItemID = "cut"
	Copy         ItemID = "copy"
	Paste        ItemID = "paste"
	SelectAll    ItemID = "select_all"
)

// Event is the notification name sent to the frontend.
type Event string

const (
	EventOpenProject  Event = "menu-open-project"
	EventCloseProject Event = "menu-close-project"
	EventSaveFile     Event = "menu-save-file"
	EventUndo         Event = "menu-undo"
	EventRedo         Event = "menu-redo"
	EventCut          Event = "menu-cut"
	EventCopy         Event = "menu-copy"
	EventPaste        Event = "menu-paste"
	EventSelectAll    Event = "menu-select-all"
)

var events = map[ItemID]Event{
	OpenProject:  EventOpenProject,
	CloseProject: EventCloseProject,
	SaveFile:     EventSaveFile,
	Undo:         EventUndo,
	Redo:         EventRedo,
	Cut:          EventCut,
	Copy:         EventCopy,
	Paste:        EventPaste,
	SelectAll:    EventSelectAll,
}

// EventFor returns the notification for id.
func EventFor(id ItemID) (Event, bool) {
	ev, ok := events[id]
	return ev, ok
}

// Role marks items the platform implements itself.
type Role string

const (
	RoleAbout Role = "about"
	RoleQuit  Role = "quit"
)

type Item struct {
	ID          ItemID `json:"id,omitempty"`
	Label       string `json:"label,omitempty"`
	Accelerator string `json:"accelerator,omitempty"`
	Role        Role   `json:"role,omitempty"`
	Separator   bool   `json:"separator,omitempty"`
	Items       []Item `json:"items,omitempty"`
}

func item(id ItemID, label, accelerator string) Item {
	return Item{ID: id, Label: label, Accelerator: accelerator}
}

func separator() Item {
	return Item{Separator: true}
}

// Build returns the fixed menu bar.
func Build(appName string) []Item {
	return []Item{
		{
			Label: appName,
			Items: []Item{
				{Role: RoleAbout, Label: "About " + appName},
				separator(),
				{Role: RoleQuit, Label: "Quit " + appName, Accelerator: "CmdOrCtrl+Q"},
			},
		},
		{
			Label: "File",
			Items: []Item{
				item(OpenProject, "Open Project...", "CmdOrCtrl+O"),
				item(CloseProject, "Close Project", ""),
				separator(),
				item(SaveFile, "Save", "CmdOrCtrl+S"),
			},
		},
		{
			Label: "Edit",
			Items: []Item{
				item(Undo, "Undo", "CmdOrCtrl+Z"),
				item(Redo, "Redo", "CmdOrCtrl+Shift+Z"),
				separator(),
				item(Cut, "Cut", "CmdOrCtrl+X"),
				item(Copy, "Copy", "CmdOrCtrl+C"),
				item(Paste, "Paste", "CmdOrCtrl+V"),
				item(SelectAll, "Select All", "CmdOrCtrl+A"),
			},
		},
	}
}
