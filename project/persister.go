package project

import (
	"editorshell/store"
)

// LastProjectKey is the settings key holding the last opened project path.
const LastProjectKey = "last_project_path"

type storePersister struct {
	store *store.Store
}

// NewStorePersister remembers the last project under LastProjectKey in s.
func NewStorePersister(s *store.Store) Persister {
	return &storePersister{store: s}
}

func (p *storePersister) SaveLastPath(path string) error {
	if err := p.store.Set(LastProjectKey, path); err != nil {
		return err
	}
	return p.store.Save()
}

func (p *storePersister) ClearLastPath() error {
	if err := p.store.Delete(LastProjectKey); err != nil {
		return err
	}
	return p.store.Save()
}

func (p *storePersister) LastPath() (string, bool, error) {
	return p.store.GetString(LastProjectKey)
}
