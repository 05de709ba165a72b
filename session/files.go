package session

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/nestrack/nestrack"
	"github.com/nestrack/nestrack/state"
)

// Write writes the persisted state of the tree to w. Plugin chains are not
// part of the persisted state.
func (s *Session) Write(w io.Writer) error {
	out, err := state.Marshal(s.tracks)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return errors.Wrap(err, "writing state")
	}
	return nil
}

// Read replaces the tree with the persisted state read from r and loads clip
// buffers with the decoder. Malformed records are replaced by defaults and
// returned as warnings; only an unreadable document fails, in which case the
// tree is left untouched.
func (s *Session) Read(r io.Reader) (warnings []error, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading state")
	}
	doc, err := state.Load(data, s.decoder)
	if err != nil {
		return nil, err
	}
	for _, w := range doc.Warnings {
		s.log.Warn("loading state", "err", w)
	}
	err = s.change("Load", func() error {
		old := s.tracks
		s.tracks = doc.Tracks
		for _, t := range old {
			s.notifyEditors(nestrack.PluginHandles(t)...)
			s.retire(t)
		}
		return nil
	})
	return doc.Warnings, err
}

// SaveFile writes the persisted state to path.
func (s *Session) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating state file")
	}
	if err := s.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing state file")
	}
	s.filePath = path
	s.changedSinceSave = false
	return nil
}

// LoadFile reads the persisted state from path, see Read.
func (s *Session) LoadFile(path string) (warnings []error, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening state file")
	}
	defer f.Close()
	if warnings, err = s.Read(f); err != nil {
		return warnings, err
	}
	s.filePath = path
	s.changedSinceSave = false
	return warnings, nil
}

// SaveRecovery writes the persisted state to the recovery file if the tree
// changed since the last recovery save.
func (s *Session) SaveRecovery() error {
	if !s.changedSinceRecovery {
		return nil
	}
	if s.recoveryFilePath == "" {
		return errors.New("no recovery file path")
	}
	if err := os.MkdirAll(filepath.Dir(s.recoveryFilePath), os.ModePerm); err != nil {
		return errors.Wrap(err, "could not create recovery directory")
	}
	out, err := state.Marshal(s.tracks)
	if err != nil {
		return errors.Wrap(err, "could not marshal recovery data")
	}
	if err := os.WriteFile(s.recoveryFilePath, out, 0o644); err != nil {
		return errors.Wrap(err, "could not write recovery file")
	}
	s.changedSinceRecovery = false
	return nil
}

// LoadRecovery replaces the tree with the contents of the recovery file, if
// there is one. The file path and the saved status are kept.
func (s *Session) LoadRecovery() (warnings []error, err error) {
	if s.recoveryFilePath == "" {
		return nil, nil
	}
	f, err := os.Open(s.recoveryFilePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "opening recovery file")
	}
	defer f.Close()
	changed := s.changedSinceSave
	warnings, err = s.Read(f)
	s.changedSinceSave = changed
	s.changedSinceRecovery = false
	return warnings, err
}
