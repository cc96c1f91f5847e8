// Package store persists the workflow text and its filename.
//
// Three implementations share the Store interface: Memory for tests and
// embedded use, File for a local checkout, and GitHub for a remote
// repository through the contents API. A store that has no content yet
// returns "" from Get without error.
package store

import "errors"

// Store holds the canonical workflow text and its filename.
type Store interface {
	Get() (string, error)
	Set(text string) error
	Filename() string
	SetFilename(name string) error
}

// ErrEmptyFilename is returned by SetFilename for an empty name.
var ErrEmptyFilename = errors.New("filename cannot be empty")

// Memory is an in-memory Store. Writes counts calls to Set.
type Memory struct {
	text   string
	name   string
	Writes int
}

var _ Store = (*Memory)(nil)

// NewMemory returns a Memory store holding text under name.
func NewMemory(name, text string) *Memory {
	return &Memory{name: name, text: text}
}

func (m *Memory) Get() (string, error) {
	return m.text, nil
}

func (m *Memory) Set(text string) error {
	m.text = text
	m.Writes++
	return nil
}

func (m *Memory) Filename() string {
	return m.name
}

func (m *Memory) SetFilename(name string) error {
	if name == "" {
		return ErrEmptyFilename
	}
	m.name = name
	return nil
}
