package usecases

import "io"

// SetExportCreate replaces the file constructor used by Export.
func (s *MissionService) SetExportCreate(create func(path string) (io.WriteCloser, error)) {
	s.create = create
}
