package schema

import "strconv"

// TabID identifies a browser tab.
type TabID int

// WindowID identifies a browser window.
type WindowID int

// FrameID identifies a frame within a tab. Frame 0 is the top-level frame.
type FrameID int

// TopFrame is the frame id of a tab's top-level document.
const TopFrame FrameID = 0

// Label is a short hint token drawn from a fixed alphabet.
type Label string

// Sender identifies the content frame a request originates from.
type Sender struct {
	TabID   TabID   `json:"tab_id"`
	FrameID FrameID `json:"frame_id"`
}

func (t TabID) String() string {
	return strconv.Itoa(int(t))
}

func (w WindowID) String() string {
	return strconv.Itoa(int(w))
}

func (f FrameID) String() string {
	return strconv.Itoa(int(f))
}
