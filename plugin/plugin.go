// Package plugin declares the callbacks the core invokes on its video, audio
// and frontend collaborators.
package plugin

// Video is the subset of the graphics plugin the core notifies.
type Video interface {
	// StatusChanged is called when VI_STATUS changes.
	StatusChanged()
	// WidthChanged is called when VI_WIDTH changes.
	WidthChanged()
	// UpdateScreen is called on every vertical interrupt.
	UpdateScreen()
}

// SystemType is the video standard of the loaded program.
type SystemType int

const (
	NTSC SystemType = iota
	PAL
	MPAL
)

// Audio is the subset of the audio plugin the core notifies.
type Audio interface {
	// DacrateChanged is called when AI_DACRATE changes.
	DacrateChanged(system SystemType)
}

// CoreParam identifies a frontend state notification.
type CoreParam int

const (
	StateLoadComplete CoreParam = iota + 1
	StateSaveComplete
)

func (p CoreParam) String() string {
	switch p {
	case StateLoadComplete:
		return "load complete"
	case StateSaveComplete:
		return "save complete"
	}
	return "unknown"
}

// Frontend receives core state notifications.
type Frontend interface {
	StateChanged(param CoreParam, value int)
}

// Nop implements every callback as a no-op.
type Nop struct{}

func (Nop) StatusChanged() {}
func (Nop) WidthChanged() {}
func (Nop) UpdateScreen() {}
func (Nop) DacrateChanged(SystemType) {}
func (Nop) StateChanged(param CoreParam, v int) {}
